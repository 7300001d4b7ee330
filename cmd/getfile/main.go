package main

import (
	"os"

	"github.com/vertextoedge/getfile/internal/config"
)

const version = config.Version

func main() {
	os.Exit(execute())
}
