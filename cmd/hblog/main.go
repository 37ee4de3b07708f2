// Command hblog generates and serves a bilingual blog.
package main

func main() {
	Execute()
}
