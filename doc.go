// Package serverlog decodes streams of server log records.
//
// The input is a sequence of JSON objects, one after the other, separated by
// optional whitespace.  It is not wrapped in an array and there are no commas
// between the objects, e.g.
//
//	{"user_id": 42, "username": "User McUserton"}
//	{"user_id": 43, "username": "Senor Seconduser"}
//
// Each object must have an integer "user_id" that fits in 32 bits unsigned and
// a string "username".  Other fields are ignored.
//
// Parse reads a whole stream and fails on the first bad value, without
// returning the records decoded before it.  A Decoder gives access to the
// records one at a time.  ParseBytes does the same as Parse for input already
// in memory, using the fastjson parser.
//
// The package is organized into several sub-packages:
//
// - encoding/json: parses one JSON value at a time into tokens
// - token: the tokens a JSON value is made of
// - iterator: value-based iteration over token streams
//
// The command line tool in cmd/serverlog prints the records found in files
// or on standard input.
package serverlog
