package content

import (
	"io"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/glorpus-work/tilefetch/internal/logger"
	"github.com/glorpus-work/tilefetch/pkg/download"
	"github.com/glorpus-work/tilefetch/pkg/errors"
)

// scriptModules are the Tengo standard modules a checker script may import.
var scriptModules = []string{"text", "fmt", "math", "json", "hex"}

// Script compiles a Tengo checker. The script sees the first 512 bytes of
// the file as the string head and its size in bytes as size, and accepts the
// file by assigning true to valid:
//
//	text := import("text")
//	valid = size > 100 && !text.contains(head, "<html")
//
// The compiled checker is safe for concurrent use.
func Script(src string) (download.ContentChecker, error) {
	s := tengo.NewScript([]byte(src))
	s.SetImports(stdlib.GetModuleMap(scriptModules...))
	_ = s.Add("head", "")
	_ = s.Add("size", 0)
	_ = s.Add("valid", false)

	compiled, err := s.Compile()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrScriptCompile, "%v", err)
	}

	return func(r io.Reader) bool {
		head := readHead(r)
		rest, _ := io.Copy(io.Discard, r)

		run := compiled.Clone()
		_ = run.Set("head", string(head))
		_ = run.Set("size", int64(len(head))+rest)
		if err := run.Run(); err != nil {
			logger.Warn("checker script failed", logger.Fields{"error": errors.Wrapf(errors.ErrScriptRun, "%v", err).Error()})
			return false
		}
		return run.Get("valid").Bool()
	}, nil
}
