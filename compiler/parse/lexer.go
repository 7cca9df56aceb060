package parse

import (
	"github.com/alecthomas/participle/v2/lexer"
)

var Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `//[^\n]*|/\*(?:[^*]|\*+[^*/])*\*+/`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},

		{"Int", `0[xX][0-9a-fA-F]+|0[0-7]*|[1-9][0-9]*`, nil},
		{"Keyword", `\b(?:const|int|void|if|else|while|break|continue|return)\b`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},

		{"Operator", `\|\||&&|==|!=|<=|>=|[-+*/%!<>=]`, nil},
		{"Punct", `[(){},;\[\]]`, nil},
	},
})
