package executor

import (
	"errors"
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclaredNames(t *testing.T) {
	names, err := DeclaredNames(`
var a = 1, b
let c = 2
const d = 3
const {e} = {e: 4}
function f() { var inner = 1 }
if (true) { let scoped = 5 }
g = 6`)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c", "d"}, names)
}

func TestDeclaredNamesSyntaxError(t *testing.T) {
	_, err := DeclaredNames(`const = 1`)
	assert.Error(t, err)
}

func TestBindingNamesMergesDeclaredAndGlobals(t *testing.T) {
	vm := goja.New()
	code := "const x = 1\nvar y = 2\nz = 3"
	_, err := vm.RunString(code)
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "y", "z"}, bindingNames(vm, code))
}

func TestInterrupterStopsUnfinishedRun(t *testing.T) {
	vm := goja.New()
	guard := &interrupter{vm: vm}

	guard.interrupt("stop")
	_, err := vm.RunString("1 + 1")

	var interrupted *goja.InterruptedError
	require.True(t, errors.As(err, &interrupted))
	assert.Equal(t, "stop", interrupted.Value())
}

func TestInterrupterDropsLateInterrupts(t *testing.T) {
	vm := goja.New()
	guard := &interrupter{vm: vm}

	guard.finish()
	guard.interrupt("too late")

	v, err := vm.RunString("1 + 1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v.ToInteger())
}

func TestInterrupterFinishClearsPendingInterrupt(t *testing.T) {
	vm := goja.New()
	guard := &interrupter{vm: vm}

	guard.interrupt("pending")
	guard.finish()

	_, err := vm.RunString("1 + 1")
	assert.NoError(t, err)
}
