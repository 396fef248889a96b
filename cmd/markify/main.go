// Copyright 2026 Markify Authors
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/markifyhq/markify"
)

var version = "dev"

func main() {
	var (
		output       string
		extension    string
		mimeType     string
		charset      string
		mode         string
		styleMap     string
		showVersion  bool
		keepDataURIs bool
	)

	flag.StringVar(&output, "o", "", "Output file (default: stdout)")
	flag.StringVar(&output, "output", "", "Output file (default: stdout)")
	flag.StringVar(&extension, "x", "", "File extension hint (for stdin input)")
	flag.StringVar(&extension, "extension", "", "File extension hint (for stdin input)")
	flag.StringVar(&mimeType, "m", "", "MIME type hint")
	flag.StringVar(&mimeType, "mime-type", "", "MIME type hint")
	flag.StringVar(&charset, "c", "", "Charset hint")
	flag.StringVar(&charset, "charset", "", "Charset hint")
	flag.StringVar(&mode, "mode", "simple", "PDF conversion mode: simple, advanced or cloud")
	flag.StringVar(&styleMap, "style-map", "", "DOCX style map file (lines of \"Style Name => h2\")")
	flag.BoolVar(&showVersion, "v", false, "Show version")
	flag.BoolVar(&showVersion, "version", false, "Show version")
	flag.BoolVar(&keepDataURIs, "keep-data-uris", false, "Keep full base64-encoded data URIs")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: markify [flags] [source]\n\n")
		fmt.Fprintf(os.Stderr, "Convert documents to Markdown.\n\n")
		fmt.Fprintf(os.Stderr, "Arguments:\n")
		fmt.Fprintf(os.Stderr, "  source    File path or URL to convert (reads stdin if omitted)\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("markify %s\n", version)
		os.Exit(0)
	}

	parsedMode, err := markify.ParseMode(mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	opts := []markify.Option{markify.WithMode(parsedMode)}
	if keepDataURIs {
		opts = append(opts, markify.WithKeepDataURIs(true))
	}
	if styleMap != "" {
		data, readErr := os.ReadFile(styleMap)
		if readErr != nil {
			fmt.Fprintf(os.Stderr, "Error reading style map: %v\n", readErr)
			os.Exit(1)
		}
		opts = append(opts, markify.WithStyleMap(string(data)))
	}
	m := markify.New(opts...)

	var convertOpts []markify.ConvertOption
	if extension != "" {
		convertOpts = append(convertOpts, markify.WithExtensionHint(extension))
	}
	if mimeType != "" {
		convertOpts = append(convertOpts, markify.WithContentTypeHint(mimeType))
	}
	if charset != "" {
		convertOpts = append(convertOpts, markify.WithCharsetHint(charset))
	}

	var result *markify.DocumentConverterResult

	args := flag.Args()
	if len(args) == 0 {
		result, err = m.ConvertReader(os.Stdin, convertOpts...)
	} else {
		source := args[0]
		if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
			convertOpts = append(convertOpts, markify.WithFilenameHint(filepath.Base(source)))
		}
		result, err = m.Convert(source, convertOpts...)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if output != "" {
		if dir := filepath.Dir(output); dir != "." {
			os.MkdirAll(dir, 0o755)
		}
		if writeErr := os.WriteFile(output, []byte(result.Markdown+"\n"), 0o644); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", writeErr)
			os.Exit(1)
		}
	} else {
		fmt.Println(result.Markdown)
	}
}
