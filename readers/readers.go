package readers

import (
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"strings"

	"varspot.io/vsp/types"
)

// StringReader builds a dataset holding a single document with one part
// containing the given text.
type StringReader struct {
	DocID string
	Text  string
}

func (reader StringReader) Read() *types.Dataset {
	docID := reader.DocID
	if docID == "" {
		docID = "doc_1"
	}
	return &types.Dataset{
		Documents: []*types.Document{
			{
				ID: docID,
				Parts: []*types.Part{
					{ID: "abstract", Text: reader.Text},
				},
			},
		},
	}
}

// TextFilesReader builds a dataset from a .txt file or a directory of .txt
// files, one document per file, the file stem as document ID.
type TextFilesReader struct {
	Path string
}

func (reader TextFilesReader) Read() (*types.Dataset, error) {
	info, err := os.Stat(reader.Path)
	if err != nil {
		return nil, err
	}

	var filePaths []string
	if info.IsDir() {
		files, err := ioutil.ReadDir(reader.Path)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".txt") {
				continue
			}
			filePaths = append(filePaths, path.Join(reader.Path, f.Name()))
		}
	} else {
		filePaths = append(filePaths, reader.Path)
	}

	if len(filePaths) == 0 {
		return nil, fmt.Errorf("no .txt files found under %q", reader.Path)
	}

	dataset := &types.Dataset{}
	for _, filePath := range filePaths {
		buf, err := ioutil.ReadFile(filePath)
		if err != nil {
			return nil, err
		}
		docID := strings.TrimSuffix(path.Base(filePath), ".txt")
		dataset.Documents = append(dataset.Documents, &types.Document{
			ID: docID,
			Parts: []*types.Part{
				{ID: "body", Text: string(buf)},
			},
		})
	}
	return dataset, nil
}
