// Command crcsim replays memory access traces through a cache driven by one
// of the replacement policies.
package main

import "github.com/sarchlab/crcrepl/crcsim/cmd"

func main() {
	cmd.Execute()
}
