/*
bleachthiscode rewrites C and C++ source into a visually blank but
equivalent form.

Every token is replaced by an alias made of zero-width characters, and a
prologue of #define lines maps each alias back to its original text, so the
preprocessor still sees the original program.
*/
package main

import (
	"github.com/whit3rabbit/bleachcode/cmd/bleachthiscode/cmd"
)

func main() {
	cmd.Execute()
}
