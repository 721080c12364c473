package statement

import (
	"strconv"
	"strings"

	"sqlbase/internal/shared"
)

// Class tells how a statement is executed and what it reports.
type Class int

const (
	ClassQuery Class = iota
	ClassMutation
	ClassDefinition
)

func (c Class) String() string {
	switch c {
	case ClassQuery:
		return "query"
	case ClassMutation:
		return "mutation"
	case ClassDefinition:
		return "definition"
	default:
		return "unknown"
	}
}

// paramStyle is the placeholder family used by a statement.
type paramStyle int

const (
	styleNone paramStyle = iota
	styleAnonymous
	styleNumbered
	styleNamed
)

func (s paramStyle) String() string {
	switch s {
	case styleAnonymous:
		return "?"
	case styleNumbered:
		return "?NNN"
	case styleNamed:
		return ":name"
	default:
		return "none"
	}
}

// maxParamNumber mirrors SQLITE_MAX_VARIABLE_NUMBER of the bundled engine.
const maxParamNumber = 32766

// analysis is what the executor needs to know before touching storage.
type analysis struct {
	class   Class
	verb    string // leading keyword, upper case; for WITH the main verb
	style   paramStyle
	params  int      // number of distinct parameters
	names   []string // named parameters in order of first use, without prefix
	returns bool     // INSERT/REPLACE, so a generated id is meaningful
}

var leadingClass = map[string]Class{
	"SELECT":  ClassQuery,
	"VALUES":  ClassQuery,
	"PRAGMA":  ClassQuery,
	"EXPLAIN": ClassQuery,
	"INSERT":  ClassMutation,
	"UPDATE":  ClassMutation,
	"DELETE":  ClassMutation,
	"REPLACE": ClassMutation,
	"CREATE":  ClassDefinition,
	"DROP":    ClassDefinition,
	"ALTER":   ClassDefinition,
	"REINDEX": ClassDefinition,
	"ANALYZE": ClassDefinition,
	"VACUUM":  ClassDefinition,
}

var transactionControl = map[string]struct{}{
	"BEGIN":     {},
	"COMMIT":    {},
	"END":       {},
	"ROLLBACK":  {},
	"SAVEPOINT": {},
	"RELEASE":   {},
}

// analyze classifies sql by its leading keyword and collects placeholders.
// Every failure is a SyntaxError.
func analyze(sql string) (analysis, error) {
	var a analysis
	l := newLexer(sql)

	first := l.nextToken()
	switch first.typ {
	case tokenEOF:
		return a, shared.Newf(shared.KindSyntax, "empty statement")
	case tokenWord:
	default:
		return a, shared.Newf(shared.KindSyntax, "statement must start with a keyword, got %q", first.value)
	}

	lead := strings.ToUpper(first.value)
	if _, ok := transactionControl[lead]; ok {
		return a, shared.Newf(shared.KindSyntax, "%s is not allowed: use Commit or Rollback on the connection", lead)
	}

	a.verb = lead
	withClause := lead == "WITH"
	if !withClause {
		class, ok := leadingClass[lead]
		if !ok {
			return a, shared.Newf(shared.KindSyntax, "unsupported statement %q", first.value)
		}
		a.class = class
	}

	var (
		depth    int
		ended    bool
		body     triggerBody
		seenName = make(map[string]struct{})
		maxNum   int
		anon     int
		resolved = !withClause
	)

	addStyle := func(s paramStyle, tok token) error {
		if a.style != styleNone && a.style != s {
			return shared.Newf(shared.KindSyntax, "mixed placeholder styles %s and %s at offset %d", a.style, s, tok.pos)
		}
		a.style = s
		return nil
	}

	for {
		tok := l.nextToken()
		if tok.typ == tokenEOF {
			break
		}
		if ended {
			return a, shared.Newf(shared.KindSyntax, "multiple statements are not supported (offset %d)", tok.pos)
		}

		switch tok.typ {
		case tokenUnterminated:
			return a, shared.Newf(shared.KindSyntax, "unterminated quoted text at offset %d", tok.pos)
		case tokenSemicolon:
			if !body.open {
				ended = true
			}
		case tokenParenOpen:
			depth++
		case tokenParenClose:
			depth--
		case tokenWord:
			if lead == "CREATE" && depth == 0 {
				body.see(tok.value)
			}
			if !resolved && depth == 0 {
				if class, ok := withTarget(tok.value); ok {
					a.class = class
					a.verb = strings.ToUpper(tok.value)
					resolved = true
				}
			}
		case tokenPlaceholder:
			if err := a.addPlaceholder(tok, addStyle, seenName, &maxNum, &anon); err != nil {
				return a, err
			}
		}
	}

	if !resolved {
		return a, shared.Newf(shared.KindSyntax, "WITH clause is not followed by a statement")
	}
	if body.open {
		return a, shared.Newf(shared.KindSyntax, "trigger body is not closed with END")
	}

	switch a.style {
	case styleAnonymous:
		a.params = anon
	case styleNumbered:
		a.params = maxNum
	case styleNamed:
		a.params = len(a.names)
	}
	a.returns = a.verb == "INSERT" || a.verb == "REPLACE"
	return a, nil
}

func (a *analysis) addPlaceholder(
	tok token,
	addStyle func(paramStyle, token) error,
	seenName map[string]struct{},
	maxNum, anon *int,
) error {
	prefix, rest := tok.value[0], tok.value[1:]

	numbered := prefix == '?' || (prefix == '$' && isNumber(rest))
	switch {
	case prefix == '?' && rest == "":
		if err := addStyle(styleAnonymous, tok); err != nil {
			return err
		}
		*anon++
	case numbered:
		if err := addStyle(styleNumbered, tok); err != nil {
			return err
		}
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 || n > maxParamNumber {
			return shared.Newf(shared.KindSyntax, "placeholder %s out of range 1..%d", tok.value, maxParamNumber)
		}
		if n > *maxNum {
			*maxNum = n
		}
	default:
		if err := addStyle(styleNamed, tok); err != nil {
			return err
		}
		if _, ok := seenName[rest]; !ok {
			seenName[rest] = struct{}{}
			a.names = append(a.names, rest)
		}
	}
	return nil
}

// triggerBody follows the top-level words of a CREATE statement so that
// semicolons between BEGIN and END of a trigger are not statement ends.
type triggerBody struct {
	words   int  // top-level words seen after CREATE
	temp    bool // CREATE TEMP or CREATE TEMPORARY
	trigger bool // CREATE [TEMP] TRIGGER
	open    bool // inside BEGIN ... END
	closed  bool
	cases   int // CASE ... END nesting inside the body
}

func (b *triggerBody) see(word string) {
	w := strings.ToUpper(word)
	b.words++
	switch {
	case b.words == 1 && (w == "TEMP" || w == "TEMPORARY"):
		b.temp = true
	case w == "TRIGGER" && (b.words == 1 || b.words == 2 && b.temp):
		b.trigger = true
	case !b.trigger || b.closed:
	case !b.open:
		b.open = w == "BEGIN"
	case w == "CASE":
		b.cases++
	case w == "END" && b.cases > 0:
		b.cases--
	case w == "END":
		b.open = false
		b.closed = true
	}
}

// withTarget reports the class of the main statement that follows a WITH clause.
func withTarget(word string) (Class, bool) {
	switch strings.ToUpper(word) {
	case "SELECT", "VALUES":
		return ClassQuery, true
	case "INSERT", "UPDATE", "DELETE", "REPLACE":
		return ClassMutation, true
	default:
		return 0, false
	}
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}
