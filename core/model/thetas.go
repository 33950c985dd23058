package model

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/YuminosukeSato/carprice/pkg/errors"
)

const filePermission = 0o644

// Thetas は保存される学習済みパラメータ（非正規化空間）
//
// JSONのキー名は {"Theta0": ..., "Theta1": ...} で固定。
type Thetas struct {
	Theta0 float64 `json:"Theta0"`
	Theta1 float64 `json:"Theta1"`
}

// rawThetas はキーの欠落と型の不一致を区別するための読み込み用構造体
type rawThetas struct {
	Theta0 json.RawMessage `json:"Theta0"`
	Theta1 json.RawMessage `json:"Theta1"`
}

// Validate は保存前にパラメータが有限値であることを確認する
func (t Thetas) Validate() error {
	if !errors.IsFinite(t.Theta0) || !errors.IsFinite(t.Theta1) {
		return errors.NewValidationError("thetas", "parameters must be finite", t)
	}
	return nil
}

// SaveThetas はパラメータをJSONファイルに保存する
//
// 使用例:
//
//	err := model.SaveThetas("values.json", model.Thetas{Theta0: 8499.6, Theta1: -0.0214})
func SaveThetas(path string, t Thetas) error {
	if err := t.Validate(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := WriteThetas(&buf, t); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), filePermission); err != nil {
		return errors.Wrapf(err, "failed to write parameters to %s", path)
	}
	return nil
}

// WriteThetas はパラメータをインデント付きJSONとしてWriterに書き出す
func WriteThetas(w io.Writer, t Thetas) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(&t); err != nil {
		return errors.Wrap(err, "failed to encode parameters")
	}
	return nil
}

// LoadThetas はJSONファイルからパラメータを読み込む
//
// ファイルが存在しない、JSONが壊れている、キーが欠けている、値が数値でない
// いずれの場合も ParameterStoreError を返す。呼び出し側は再学習を促すこと。
func LoadThetas(path string) (Thetas, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Thetas{}, errors.NewParameterStoreError(path, "file not found", err)
		}
		return Thetas{}, errors.NewParameterStoreError(path, "unreadable file", err)
	}
	return DecodeThetas(path, bytes.NewReader(data))
}

// DecodeThetas はReaderからパラメータを読み込む。name はエラーメッセージ用。
func DecodeThetas(name string, r io.Reader) (Thetas, error) {
	var raw rawThetas
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Thetas{}, errors.NewParameterStoreError(name, "invalid JSON", err)
	}
	if raw.Theta0 == nil || raw.Theta1 == nil {
		return Thetas{}, errors.NewParameterStoreError(name, "missing keys 'Theta0' or 'Theta1'", nil)
	}

	var t Thetas
	if err := decodeNumber(raw.Theta0, &t.Theta0); err != nil {
		return Thetas{}, errors.NewParameterStoreError(name, "invalid numeric data for 'Theta0'", err)
	}
	if err := decodeNumber(raw.Theta1, &t.Theta1); err != nil {
		return Thetas{}, errors.NewParameterStoreError(name, "invalid numeric data for 'Theta1'", err)
	}
	return t, nil
}

// decodeNumber は数値、または数値を表す文字列を受け付ける
func decodeNumber(raw json.RawMessage, dst *float64) error {
	if string(bytes.TrimSpace(raw)) == "null" {
		return errors.New("null value")
	}
	if err := json.Unmarshal(raw, dst); err == nil {
		return nil
	}
	var s json.Number
	if err := json.Unmarshal(raw, &s); err != nil {
		return err
	}
	v, err := s.Float64()
	if err != nil {
		return err
	}
	*dst = v
	return nil
}
