package response

// Problem is the body of every error response; Code repeats the HTTP
// status.
type Problem struct {
	Code   int    `json:"code"`
	Detail string `json:"detail"`
}

// Error builds a Problem, falling back to the default text for code.
func Error(code int, detail string) Problem {
	if detail == "" {
		detail = CodeMsgMap[code]
	}
	return Problem{Code: code, Detail: detail}
}

type Message struct {
	Message string `json:"message"`
}

func Msg(text string) Message { return Message{Message: text} }
