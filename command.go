package resp3

import (
	"strconv"
)

// AppendCommand appends args as an array of bulk strings to dst, which is the form servers expect commands in.
func AppendCommand(dst []byte, args ...string) []byte {
	dst = appendHeader(dst, TypeArray, len(args))
	for _, arg := range args {
		dst = appendBulkString(dst, TypeBulkString, arg)
	}
	return dst
}

// HelloCommand returns a HELLO command switching the connection to the given protocol version.
//
// args are appended after the version, e.g. "AUTH", user, pass or "SETNAME", name.
func HelloCommand(proto int, args ...string) []byte {
	return AppendCommand(nil, helloArgs(proto, args)...)
}

func helloArgs(proto int, args []string) []string {
	return append([]string{"HELLO", strconv.Itoa(proto)}, args...)
}
