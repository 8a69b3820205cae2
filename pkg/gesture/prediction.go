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
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// ErrNoGesture is returned when a message carries no gesture field
var ErrNoGesture = errors.New("message has no gesture field")

// Prediction is a classification result pushed by the inference backend
type Prediction struct {
	Gesture        string      `json:"gesture"`         // Class label, numeric classes rendered in decimal
	Class          *int        `json:"class,omitempty"` // Set when the backend sent a numeric class
	Label          string      `json:"label,omitempty"` // Display name from the labels file
	Waveform       [][]float64 `json:"waveform,omitempty"`
	HighlightRange []int       `json:"highlightRange,omitempty"`
	Raw            string      `json:"-"` // Compact JSON of the original message
}

type wirePrediction struct {
	Gesture        json.RawMessage `json:"gesture"`
	Waveform       json.RawMessage `json:"waveform"`
	HighlightRange []int           `json:"highlight_range"`
}

// FromValue converts a decoded message into a Prediction
func FromValue(v any) (Prediction, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Prediction{}, fmt.Errorf("failed to encode message: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a raw JSON message into a Prediction
func Parse(raw []byte) (Prediction, error) {
	var w wirePrediction
	if err := json.Unmarshal(raw, &w); err != nil {
		return Prediction{}, fmt.Errorf("failed to decode prediction: %w", err)
	}

	p := Prediction{Raw: compact(raw)}

	gesture := bytes.TrimSpace(w.Gesture)
	switch {
	case len(gesture) == 0 || bytes.Equal(gesture, []byte("null")):
		return Prediction{}, ErrNoGesture
	case gesture[0] == '"':
		if err := json.Unmarshal(gesture, &p.Gesture); err != nil {
			return Prediction{}, fmt.Errorf("invalid gesture label: %w", err)
		}
	default:
		var f float64
		if err := json.Unmarshal(gesture, &f); err != nil {
			return Prediction{}, fmt.Errorf("gesture must be a number or string: %w", err)
		}
		class := int(f)
		if float64(class) != f {
			return Prediction{}, fmt.Errorf("gesture class must be an integer, got %v", f)
		}
		p.Class = &class
		p.Gesture = strconv.Itoa(class)
	}

	waveform, err := parseWaveform(w.Waveform)
	if err != nil {
		return Prediction{}, err
	}
	p.Waveform = waveform

	if len(w.HighlightRange) == 2 && w.HighlightRange[0] <= w.HighlightRange[1] {
		p.HighlightRange = w.HighlightRange
	}

	return p, nil
}

// parseWaveform accepts samples x channels or a flat single-channel series
func parseWaveform(raw json.RawMessage) ([][]float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var rows [][]float64
	if err := json.Unmarshal(raw, &rows); err == nil {
		return rows, nil
	}

	var flat []float64
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("waveform must be a list of samples: %w", err)
	}
	rows = make([][]float64, len(flat))
	for i, v := range flat {
		rows[i] = []float64{v}
	}
	return rows, nil
}

// Channels returns the channel count of the waveform
func (p Prediction) Channels() int {
	if len(p.Waveform) == 0 {
		return 0
	}
	return len(p.Waveform[0])
}

// Highlighted returns the waveform samples inside HighlightRange
func (p Prediction) Highlighted() [][]float64 {
	if len(p.HighlightRange) != 2 {
		return nil
	}
	start, end := p.HighlightRange[0], p.HighlightRange[1]
	if start < 0 {
		start = 0
	}
	if end > len(p.Waveform) {
		end = len(p.Waveform)
	}
	if start >= end {
		return nil
	}
	return p.Waveform[start:end]
}

func compact(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
