package main

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"moria.us/tenuto/build/config"
	"moria.us/tenuto/build/musicxml"
	"moria.us/tenuto/build/tenuto"
)

// convertFile converts one score and writes the result. Nothing is written
// unless the conversion succeeds.
func convertFile(ctx context.Context, c *config.Config, input, output string) error {
	logrus.Infoln("Reading", input)
	doc, err := musicxml.Load(input)
	if err != nil {
		return err
	}
	cv := tenuto.New(doc, c.Options())
	logrus.Infoln("Phase 1: Parsing Structure")
	if err := cv.ScanStructure(); err != nil {
		return err
	}
	for _, inst := range cv.Structure().Instruments {
		logrus.Debugf("Instrument %s: %s (%q)", inst.PartID, inst.ID, inst.Name)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	logrus.Infoln("Phase 2: Converting Logic")
	if err := cv.ParseLogic(); err != nil {
		return err
	}
	logrus.Infoln("Phase 3: Writing to", output)
	return writeOutput(output, cv.Render())
}

// writeOutput replaces the output file. The text is written to a temporary
// file in the same directory first, so a failed write leaves any previous
// output intact.
func writeOutput(output, text string) error {
	data := []byte(text)
	fp, err := ioutil.TempFile(filepath.Dir(output), "."+filepath.Base(output)+".*")
	if err != nil {
		return err
	}
	tmp := fp.Name()
	if _, err := fp.Write(data); err != nil {
		fp.Close()
		os.Remove(tmp)
		return err
	}
	if err := fp.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, output); err != nil {
		os.Remove(tmp)
		return err
	}
	logrus.Infoln("Output:", output)
	logrus.Infoln("Size:", humanize.Bytes(uint64(len(data))))
	return nil
}

// converter returns a function which converts a score in memory.
func converter(c *config.Config) func(ctx context.Context, path string) (string, error) {
	opts := c.Options()
	return func(ctx context.Context, path string) (string, error) {
		doc, err := musicxml.Load(path)
		if err != nil {
			return "", err
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return tenuto.Convert(doc, opts)
	}
}
