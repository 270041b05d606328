// Package message implements the line-delimited JSON envelope exchanged between
// nodes, clients, and the test harness.
//
// Every line is one envelope:
//
//  {"src": "c1", "dest": "n1", "body": {"type": "broadcast", "msg_id": 1, "message": 5}}
//
// The body carries the optional msg_id and in_reply_to correlation fields and,
// flattened next to them, the fields of exactly one payload. Payload kinds form
// a closed set per Protocol; a tag that is not registered fails decoding rather
// than falling through to a default.
package message
