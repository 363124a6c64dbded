package main

import (
	"fmt"

	"github.com/protolens/vpbridge/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		fmt.Println(err.Error())
		return
	}
}
