package grading

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// 题型
const (
	TypeMultipleChoice = "multiple_choice"
	TypeMultipleSelect = "multiple_select"
	TypeTrueFalse      = "true_false"
	TypeShortAnswer    = "short_answer"
	TypeEssay          = "essay"
	TypeFillBlank      = "fill_blank"
	TypeNumeric        = "numeric"
	TypeCoding         = "coding"
	TypeDragDrop       = "drag_drop"
	TypeOrdering       = "ordering"
	TypeMatching       = "matching"
	TypeHotspot        = "hotspot"
	TypeFileUpload     = "file_upload"
)

var QuestionTypes = []string{
	TypeMultipleChoice, TypeMultipleSelect, TypeTrueFalse, TypeShortAnswer, TypeEssay,
	TypeFillBlank, TypeNumeric, TypeCoding, TypeDragDrop, TypeOrdering, TypeMatching,
	TypeHotspot, TypeFileUpload,
}

var (
	ErrUnknownQuestionType = errors.New("unknown question type")
	ErrCodingQuestion      = errors.New("coding questions are graded by running test cases")
	ErrInvalidAnswer       = errors.New("invalid answer payload")
	ErrInvalidKey          = errors.New("invalid answer key")
)

func IsValidType(t string) bool {
	for _, qt := range QuestionTypes {
		if qt == t {
			return true
		}
	}
	return false
}

// ObjectiveQuestion 客观题评分所需信息，Key 为标准答案的 JSON
type ObjectiveQuestion struct {
	Type   string
	Points float64
	Key    json.RawMessage
}

type numericKey struct {
	Value     float64 `json:"value"`
	Tolerance float64 `json:"tolerance"`
}

type hotspotRegion struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

type hotspotPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ScoreObjective 按题型评分。主观题返回 manual=true，由教师人工评分
func ScoreObjective(q ObjectiveQuestion, answer json.RawMessage) (earned, possible float64, manual bool, err error) {
	possible = q.Points
	switch q.Type {
	case TypeEssay, TypeShortAnswer, TypeFileUpload:
		return 0, possible, true, nil
	case TypeCoding:
		return 0, possible, false, ErrCodingQuestion
	}
	if !IsValidType(q.Type) {
		return 0, possible, false, fmt.Errorf("%w: %s", ErrUnknownQuestionType, q.Type)
	}
	if len(answer) == 0 || string(answer) == "null" {
		return 0, possible, false, nil
	}

	var ratio float64
	switch q.Type {
	case TypeMultipleChoice, TypeTrueFalse:
		ratio, err = scoreSingle(q.Key, answer)
	case TypeMultipleSelect:
		ratio, err = scoreSet(q.Key, answer)
	case TypeOrdering:
		ratio, err = scoreSequence(q.Key, answer)
	case TypeMatching, TypeDragDrop:
		ratio, err = scorePairs(q.Key, answer)
	case TypeFillBlank:
		ratio, err = scoreFillBlank(q.Key, answer)
	case TypeNumeric:
		ratio, err = scoreNumeric(q.Key, answer)
	case TypeHotspot:
		ratio, err = scoreHotspot(q.Key, answer)
	}
	if err != nil {
		return 0, possible, false, err
	}
	return roundPoints(possible * ratio), possible, false, nil
}

func roundPoints(v float64) float64 {
	return math.Round(v*100) / 100
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// scalarString 选项可能是字符串、数字或布尔值
func scalarString(raw json.RawMessage) (string, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	}
	return "", ErrInvalidAnswer
}

func boolRatio(ok bool) float64 {
	if ok {
		return 1
	}
	return 0
}

func scoreSingle(key, answer json.RawMessage) (float64, error) {
	want, err := scalarString(key)
	if err != nil {
		return 0, ErrInvalidKey
	}
	got, err := scalarString(answer)
	if err != nil {
		return 0, ErrInvalidAnswer
	}
	return boolRatio(normalize(want) == normalize(got)), nil
}

func decodeStrings(raw json.RawMessage, bad error) ([]string, error) {
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, bad
	}
	return list, nil
}

func scoreSet(key, answer json.RawMessage) (float64, error) {
	want, err := decodeStrings(key, ErrInvalidKey)
	if err != nil {
		return 0, err
	}
	got, err := decodeStrings(answer, ErrInvalidAnswer)
	if err != nil {
		return 0, err
	}
	return boolRatio(equalStrings(sortedNormalized(want), sortedNormalized(got))), nil
}

func sortedNormalized(list []string) []string {
	seen := make(map[string]bool, len(list))
	out := make([]string, 0, len(list))
	for _, s := range list {
		n := normalize(s)
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func scoreSequence(key, answer json.RawMessage) (float64, error) {
	want, err := decodeStrings(key, ErrInvalidKey)
	if err != nil {
		return 0, err
	}
	got, err := decodeStrings(answer, ErrInvalidAnswer)
	if err != nil {
		return 0, err
	}
	return boolRatio(equalStrings(want, got)), nil
}

// scorePairs 按配对逐项给分
func scorePairs(key, answer json.RawMessage) (float64, error) {
	var want, got map[string]string
	if err := json.Unmarshal(key, &want); err != nil || len(want) == 0 {
		return 0, ErrInvalidKey
	}
	if err := json.Unmarshal(answer, &got); err != nil {
		return 0, ErrInvalidAnswer
	}
	correct := 0
	for k, v := range want {
		if g, ok := got[k]; ok && normalize(g) == normalize(v) {
			correct++
		}
	}
	return float64(correct) / float64(len(want)), nil
}

func scoreFillBlank(key, answer json.RawMessage) (float64, error) {
	accepted, err := decodeStrings(key, ErrInvalidKey)
	if err != nil {
		single, serr := scalarString(key)
		if serr != nil {
			return 0, ErrInvalidKey
		}
		accepted = []string{single}
	}
	got, err := scalarString(answer)
	if err != nil {
		return 0, ErrInvalidAnswer
	}
	for _, a := range accepted {
		if normalize(a) == normalize(got) {
			return 1, nil
		}
	}
	return 0, nil
}

func scoreNumeric(key, answer json.RawMessage) (float64, error) {
	var k numericKey
	if err := json.Unmarshal(key, &k); err != nil {
		return 0, ErrInvalidKey
	}
	s, err := scalarString(answer)
	if err != nil {
		return 0, ErrInvalidAnswer
	}
	got, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, ErrInvalidAnswer
	}
	return boolRatio(math.Abs(got-k.Value) <= math.Abs(k.Tolerance)+1e-9), nil
}

func scoreHotspot(key, answer json.RawMessage) (float64, error) {
	var regions []hotspotRegion
	if err := json.Unmarshal(key, &regions); err != nil || len(regions) == 0 {
		return 0, ErrInvalidKey
	}
	var p hotspotPoint
	if err := json.Unmarshal(answer, &p); err != nil {
		return 0, ErrInvalidAnswer
	}
	for _, r := range regions {
		if math.Hypot(p.X-r.X, p.Y-r.Y) <= r.Radius {
			return 1, nil
		}
	}
	return 0, nil
}
