// Command palisade synthesizes application execution-control policies from
// filesystem scan output, assembles them into deployable artifacts, and
// compares policies across revisions.
package main

func main() {
	Execute()
}
