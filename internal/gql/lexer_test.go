package gql

import "testing"

func collectTokens(t *testing.T, src string) []Token {
	t.Helper()
	l := NewLexer(src)
	var toks []Token
	for {
		tok, err := l.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		toks = append(toks, tok)
		if tok.Kind == TokEOF {
			break
		}
	}
	return toks
}

func TestLexer_KeywordsAreCaseInsensitive(t *testing.T) {
	toks := collectTokens(t, "match Match MATCH")
	for _, tok := range toks[:3] {
		if tok.Kind != TokKeyword || tok.Text != "MATCH" {
			t.Fatalf("expected MATCH keyword, got %+v", tok)
		}
	}
}

func TestLexer_EdgeArrowTokens(t *testing.T) {
	toks := collectTokens(t, "-[e]->")
	want := []string{"-[", "]->"}
	var got []string
	for _, tok := range toks {
		if tok.Kind == TokPunct {
			got = append(got, tok.Text)
		}
	}
	if len(got) != len(want) {
		t.Fatalf("got punct tokens %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got punct tokens %v, want %v", got, want)
		}
	}
}

func TestLexer_IncomingEdgeArrow(t *testing.T) {
	toks := collectTokens(t, "<-[e]-")
	if toks[0].Text != "<-[" || toks[0].Kind != TokPunct {
		t.Fatalf("expected <-[ punct, got %+v", toks[0])
	}
}

func TestLexer_StringEscapes(t *testing.T) {
	toks := collectTokens(t, `'a\'b'`)
	if toks[0].Kind != TokString || toks[0].Text != "a'b" {
		t.Fatalf("got %+v", toks[0])
	}
}

func TestLexer_BackquotedIdentifier(t *testing.T) {
	toks := collectTokens(t, "`weird name`")
	if toks[0].Kind != TokIdent || toks[0].Text != "weird name" {
		t.Fatalf("got %+v", toks[0])
	}
}

func TestLexer_NumberLiterals(t *testing.T) {
	toks := collectTokens(t, "42 3.14 5.")
	if toks[0].Kind != TokInt || toks[0].Text != "42" {
		t.Fatalf("got %+v", toks[0])
	}
	if toks[1].Kind != TokFloat || toks[1].Text != "3.14" {
		t.Fatalf("got %+v", toks[1])
	}
	if toks[2].Kind != TokInt || toks[2].Text != "5" {
		t.Fatalf("expected 5 to lex as int with trailing dot punct, got %+v", toks[2])
	}
}

func TestLexer_LineComment(t *testing.T) {
	toks := collectTokens(t, "MATCH // a comment\nRETURN")
	if toks[0].Text != "MATCH" || toks[1].Text != "RETURN" {
		t.Fatalf("got %+v", toks)
	}
}

func TestLexer_UnterminatedStringErrors(t *testing.T) {
	l := NewLexer(`'unterminated`)
	if _, err := l.Next(); err == nil {
		t.Fatalf("expected error for unterminated string")
	}
}
