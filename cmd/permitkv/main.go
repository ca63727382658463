// Command permitkv runs and administers an access-controlled record store.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		logrus.Errorln(err)
		os.Exit(1)
	}
}
