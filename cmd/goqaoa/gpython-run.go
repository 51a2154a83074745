package main

import (
	"time"

	"github.com/go-python/gpython/py"
	"github.com/go-python/gpython/repl"
	"github.com/go-python/gpython/repl/cli"
	"github.com/plan-systems/klog"

	_ "github.com/ansatz-systems/goqaoa/pyqaoa"
	_ "github.com/go-python/gpython/stdlib"
)

// go_gpython runs a python script with the _pyqaoa module available, or drops
// into a REPL when no script is given. The REPL pre-loads the pyqaoa wrappers
// via lib/_REPL_startup.py, so it expects to start in cmd/goqaoa.
func go_gpython(pathname string) {
	ctx := py.NewContext(py.DefaultContextOpts())

	var err error
	if len(pathname) == 0 {
		replCtx := repl.New(ctx)
		if _, err = py.RunFile(ctx, "lib/_REPL_startup.py", py.CompileOpts{}, replCtx.Module); err == nil {
			cli.RunREPL(replCtx)
		}
	} else {
		started := time.Now()
		klog.Infof("executing %q", pathname)
		if _, err = py.RunFile(ctx, pathname, py.CompileOpts{}, nil); err == nil {
			klog.Infof("execution complete: %v", time.Since(started))
		}
	}

	ctx.Close()
	<-ctx.Done()

	if err != nil {
		py.TracebackDump(err)
		klog.Fatal(err)
	}
}
