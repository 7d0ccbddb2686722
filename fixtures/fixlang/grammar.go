// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 grantgraph Contributors

// Package fixlang implements a small grammar for human-writable ACL
// fixture text, e.g.:
//
//	M<u1> = g1:15;
//	P<doc1> = u1:6, u1:32X;
//	F<doc1> = 2;
//
// A membership or permission row names its id, an optional "!" marking
// it terminal, and a comma-separated list of subject:mask[marker]
// entries. A filter row carries a single bare mask.
package fixlang

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var fixlangLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `\d+`},
	{Name: "Ident", Pattern: `[a-zA-Z_][\w-]*`},
	{Name: "Punct", Pattern: `[<>=:,;!]`},
	{Name: "whitespace", Pattern: `\s+`},
	{Name: "comment", Pattern: `#[^\n]*`},
})

// Document is a parsed fixture file: a sequence of row statements.
//
// Grammar: row*
type Document struct {
	Pos  lexer.Position `parser:""`
	Rows []*Row         `parser:"@@*"`
}

// Row matches: kind "<" id "!"? ">" "=" [ entry ("," entry)* ] ";"
type Row struct {
	Pos      lexer.Position `parser:""`
	Kind     string         `parser:"@('M' | 'P' | 'F')"`
	ID       string         `parser:"'<' @Ident"`
	Terminal bool           `parser:"@'!'? '>'"`
	Entries  []*Entry       `parser:"'=' (@@ (',' @@)*)? ';'"`
}

// Entry matches: [ subject_id ":" ] mask [ marker ]
//
// A bare integer (no leading "subject:") is how a filter row's single
// mask value is represented.
type Entry struct {
	Pos       lexer.Position `parser:""`
	SubjectID string         `parser:"(@Ident ':')?"`
	Mask      int            `parser:"@Int"`
	Marker    string         `parser:"@('X' | 'I' | 'F' | 'T')?"`
}

var fixlangParser = participle.MustBuild[Document](
	participle.Lexer(fixlangLexer),
	participle.Elide("whitespace", "comment"),
	participle.UseLookahead(2),
)
