package artifact

import (
	"bufio"
	"io"
	"strings"
)

// TextLoader handles plain text files. Runs of blank lines collapse to one.
type TextLoader struct{}

func (l *TextLoader) Load(r io.Reader, filename string) (*Artifact, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &Artifact{
		Name:   filename,
		Title:  stem(filename),
		Format: "text",
		Text:   strings.Join(paragraphs, "\n\n"),
	}, nil
}
