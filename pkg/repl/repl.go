// Package repl implements ardan's `--repl` interactive mode: one
// statement per line against a persistent driver.Session, line-edited and
// history-backed by github.com/chzyer/readline (SPEC_FULL.md §B); no tab
// completion is configured.
package repl

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/ardan-lang/ardan/pkg/driver"
	"github.com/ardan-lang/ardan/pkg/value"
)

const prompt = "ardan> "
const continuationPrompt = "...    "

// Run drives the interactive loop until EOF (Ctrl-D) or an interrupt
// (Ctrl-C on an empty line), printing each input's RunString result unless
// it is undefined (spec.md §6 "--repl"). RunString yields Undefined for
// compiled top-level code, so the value of an expression is not echoed;
// output comes from print/console.log and from error messages.
func Run() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFilePath(),
		InterruptPrompt: "^C",
		EOFPrompt:       "",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	sess := driver.NewSession()
	fmt.Println("ardan (Ctrl-D to exit)")

	var buf strings.Builder
	for {
		if buf.Len() > 0 {
			rl.SetPrompt(continuationPrompt)
		} else {
			rl.SetPrompt(prompt)
		}
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if buf.Len() == 0 {
				continue
			}
			buf.Reset()
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		buf.WriteString(line)
		buf.WriteString("\n")
		if needsMoreInput(line) {
			continue
		}

		source := buf.String()
		buf.Reset()
		if strings.TrimSpace(source) == "" {
			continue
		}

		result, err := sess.RunString(source)
		if err != nil {
			fmt.Println(driver.DisplayError(err))
			continue
		}
		if result.Kind != value.UNDEFINED {
			fmt.Println(result.ToString())
		}
	}
}

// needsMoreInput is a brace/paren/bracket-balance heuristic for multi-line
// input, the same shape of check the teacher's own REPL-adjacent tooling
// in the pack uses rather than a full incremental parse.
func needsMoreInput(line string) bool {
	depth := 0
	inString := false
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		if inString {
			if c == '\\' {
				i++
				continue
			}
			if c == quote {
				inString = false
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			inString = true
			quote = c
		case '{', '(', '[':
			depth++
		case '}', ')', ']':
			depth--
		}
	}
	return depth > 0
}

func historyFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".ardan_history"
	}
	return home + "/.ardan_history"
}
