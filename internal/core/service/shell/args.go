package shell

import (
	"fmt"
	"simplefilehost/internal/core/domain"
	"strings"
)

// SplitArgs splits a command line on blanks, honouring single and double quotes
func SplitArgs(line string) ([]string, error) {
	var args []string
	var cur strings.Builder
	inArg := false
	var quote rune

	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			cur.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inArg = true
		case r == ' ' || r == '\t':
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(r)
			inArg = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("%w: unterminated quote", domain.ErrInvalidArgument)
	}
	if inArg {
		args = append(args, cur.String())
	}
	return args, nil
}
