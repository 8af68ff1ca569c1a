// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataset

import (
	"bufio"
	"io"
	"strings"

	"github.com/juju/errors"
)

// readLines splits each record of r into fields. Fields may be quoted with `"`,
// and a quoted field may contain the separator, escaped quotes (`""`) and line
// breaks. handler receives the zero-based line number where the record starts.
func readLines(r io.Reader, sep rune, handler func(line int, fields []string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineCount := 0               // line number of current position
	startLine := 0               // line number where the current record starts
	fields := make([]string, 0)  // fields for current record
	builder := strings.Builder{} // string builder for current field
	quoted := false              // whether current position in quote
	for sc.Scan() {
		line := []rune(strings.TrimSuffix(sc.Text(), "\r"))
		if quoted {
			builder.WriteString("\n")
		} else {
			startLine = lineCount
		}
		for i := 0; i < len(line); i++ {
			switch {
			case line[i] == sep && !quoted:
				fields = append(fields, builder.String())
				builder.Reset()
			case line[i] == '"':
				if quoted {
					if i+1 >= len(line) || line[i+1] != '"' {
						quoted = false
					} else {
						i++
						builder.WriteRune('"')
					}
				} else {
					quoted = true
				}
			default:
				builder.WriteRune(line[i])
			}
		}
		if !quoted {
			fields = append(fields, builder.String())
			builder.Reset()
			if err := handler(startLine, fields); err != nil {
				return err
			}
			fields = make([]string, 0, len(fields))
		}
		lineCount++
	}
	if err := sc.Err(); err != nil {
		return errors.Trace(err)
	}
	if quoted {
		return errors.NotValidf("unterminated quote starting at line %d", startLine+1)
	}
	return nil
}

func isBlank(fields []string) bool {
	return len(fields) == 1 && strings.TrimSpace(fields[0]) == ""
}
