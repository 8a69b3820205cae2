/*
 * Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package gesture

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Labels maps gesture classes as sent by the backend to display names
type Labels map[string]string

type labelsFile struct {
	Labels map[string]string `yaml:"labels"`
}

// Name returns the display name of a gesture class, or the class itself
// when no label is defined
func (l Labels) Name(gesture string) string {
	if name, ok := l[gesture]; ok && name != "" {
		return name
	}
	return gesture
}

// LoadLabels reads a YAML (or JSON) labels file of the form
//
//	labels:
//	  "1": A
//	  "2": B
//
// A missing file yields empty labels.
func LoadLabels(path string, logger *zap.Logger) (Labels, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" && ext != ".json" {
		return nil, fmt.Errorf("unsupported labels file extension %q", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("Gesture labels file does not exist", zap.String("path", path))
			return Labels{}, nil
		}
		return nil, fmt.Errorf("failed to read labels file: %w", err)
	}

	var f labelsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse labels file: %w", err)
	}

	labels := make(Labels, len(f.Labels))
	for class, name := range f.Labels {
		class = strings.TrimSpace(class)
		if class == "" {
			return nil, fmt.Errorf("labels file %s has an empty class key", path)
		}
		labels[class] = strings.TrimSpace(name)
	}

	logger.Info("Loaded gesture labels",
		zap.Int("count", len(labels)),
		zap.String("file", path))

	return labels, nil
}
