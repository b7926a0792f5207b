package types

import (
	"errors"
	"io/ioutil"
	"os"
	"path"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
	"varspot.io/vsp/logger"
)

const (
	// pipeline type
	MutationMentionPipeline = "mutation_mention"

	// default entity class for recognized mutation mentions
	MutationClassID = "e_2"
)

type Configuration struct {
	Name      string `json:"name"`
	FilePath  string `json:"file_path"`
	Pipeline  string `yaml:"pipeline" json:"pipeline"`
	ModelFile string `yaml:"model_file" json:"model_file"`
	ClassID   string `yaml:"class_id" json:"class_id"`
}

// LoadConfigurations reads every *.yaml file in dirPath into a named
// pipeline configuration.
func LoadConfigurations(dirPath string) ([]Configuration, error) {
	vspLogger := logger.NewLogger("LoadConfigurations")

	files, err := ioutil.ReadDir(dirPath)
	if err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	configChan := make(chan Configuration, len(files))
	for _, f := range files {
		// Skip dirs and non-yaml files
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".yaml") {
			continue
		}

		wg.Add(1)
		go func(file os.FileInfo) {
			defer wg.Done()
			cfg := Configuration{
				Name:     strings.Split(file.Name(), ".yaml")[0],
				FilePath: path.Join(dirPath, file.Name()),
			}
			buf, err := ioutil.ReadFile(cfg.FilePath)
			if err != nil {
				vspLogger.Err(err)
				return
			}
			if err := yaml.Unmarshal(buf, &cfg); err != nil {
				vspLogger.Err(err)
				return
			}

			if cfg.Pipeline != MutationMentionPipeline {
				vspLogger.Err(errors.New("wrong pipeline type"))
				return
			}
			if cfg.ClassID == "" {
				cfg.ClassID = MutationClassID
			}

			configChan <- cfg
		}(f)
	}

	go func() {
		wg.Wait()
		close(configChan)
	}()

	configs := make([]Configuration, 0, len(configChan))
	for cfg := range configChan {
		configs = append(configs, cfg)
	}
	return configs, nil
}
