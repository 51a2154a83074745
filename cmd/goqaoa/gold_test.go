package main

import (
	"bytes"
	"io"
	"os"
	"path"
	"path/filepath"
	"testing"

	"github.com/go-python/gpython/py"
)

// TestGold runs every learn/ script and compares its output byte for byte
// against the checked-in learn/gold transcript. Scripts only print facts
// that are independent of sampling noise, so the transcripts are stable.
func TestGold(t *testing.T) {
	scriptDir := "learn/"
	files, err := os.ReadDir(scriptDir)
	if err != nil {
		t.Fatal(err)
	}

	goldDir := path.Join(scriptDir, "gold")
	outDir := t.TempDir()

	for _, fi := range files {
		pyFile := path.Join(scriptDir, fi.Name())
		ext := filepath.Ext(pyFile)
		if ext != ".py" {
			continue
		}

		name := fi.Name()[:len(fi.Name())-len(ext)]
		outputPathname := path.Join(outDir, name+".txt")
		{
			ctx := py.NewContext(py.DefaultContextOpts())
			redirect, err := RedirectToFile(outputPathname, ctx)
			if err != nil {
				t.Fatal(err)
			}

			_, err = py.RunFile(ctx, pyFile, py.CompileOpts{}, nil)
			ctx.Close()
			<-ctx.Done()

			if cerr := redirect.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				py.TracebackDump(err)
				t.Fatalf("%s: %v", pyFile, err)
			}
		}

		got, err := os.ReadFile(outputPathname)
		if err != nil {
			t.Fatal(err)
		}

		goldPathname := path.Join(goldDir, name+".txt")
		want, err := os.ReadFile(goldPathname)
		if err != nil {
			t.Fatalf("%s has no gold transcript: %v", pyFile, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("%s: output does not match %s, got:\n%s", pyFile, goldPathname, got)
		}
	}
}

type pyRedirect struct {
	file       *os.File
	prevStdout *os.File
}

// RedirectToFile points both the interpreter's sys.stdout and the process
// Stdout at outputPathname until the returned Closer restores them.
func RedirectToFile(outputPathname string, ctx py.Context) (io.Closer, error) {
	ofile, err := os.OpenFile(outputPathname, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}

	sys := ctx.Store().MustGetModule("sys")
	sys.Globals["stdout"] = &py.File{
		File:     ofile,
		FileMode: py.FileWrite,
	}

	redir := &pyRedirect{
		file:       ofile,
		prevStdout: os.Stdout,
	}

	os.Stdout = ofile

	return redir, nil
}

func (redir *pyRedirect) Close() error {
	if redir.prevStdout == nil {
		return nil
	}

	os.Stdout = redir.prevStdout
	redir.prevStdout = nil
	err := redir.file.Close()
	redir.file = nil
	return err
}
