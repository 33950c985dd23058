// Package preprocessing は学習前のデータ変換を提供する。
package preprocessing

import (
	"fmt"

	"github.com/YuminosukeSato/carprice/core/model"
	"github.com/YuminosukeSato/carprice/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// MinMaxScaler は1系列のMin-Maxスケーラー
// 値を [0,1] に写像し、学習後のパラメータを元のスケールに戻すために統計量を保持する
type MinMaxScaler struct {
	model.BaseEstimator

	// DataMin は学習データの最小値
	DataMin float64

	// DataMax は学習データの最大値
	DataMax float64

	// Scale は値域 (max - min)。値域が0の場合は1
	Scale float64

	// NSamples は学習に使ったサンプル数
	NSamples int

	degenerate bool
}

// NewMinMaxScaler は新しいMinMaxScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewMinMaxScaler()
//	scaled, err := scaler.FitTransform(mileage)
func NewMinMaxScaler() *MinMaxScaler {
	return &MinMaxScaler{}
}

// Fit は系列から最小値・最大値を計算する
//
// 値域が0（すべて同じ値）の場合はスケールを1とし、IsDegenerate が true を返す。
// この場合 Transform はすべての値を0に写像する。
func (m *MinMaxScaler) Fit(values []float64) error {
	if len(values) == 0 {
		return errors.NewEmptyInputError("MinMaxScaler.Fit")
	}
	if err := errors.CheckNumericalStability("MinMaxScaler.Fit", values, 0); err != nil {
		return err
	}

	m.DataMin = floats.Min(values)
	m.DataMax = floats.Max(values)
	m.NSamples = len(values)

	// 値域がどれだけ小さくても max > min であれば定数ではない
	if m.DataMax == m.DataMin {
		// 定数系列の場合、スケールを1に設定
		m.Scale = 1.0
		m.degenerate = true
	} else {
		m.Scale = m.DataMax - m.DataMin
		m.degenerate = false
	}

	m.SetFitted()
	return nil
}

// Transform は学習済みの統計量で値を [0,1] にスケーリングする
func (m *MinMaxScaler) Transform(values []float64) ([]float64, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("MinMaxScaler", "Transform")
	}

	result := make([]float64, len(values))
	for i, v := range values {
		result[i] = m.TransformValue(v)
	}
	return result, nil
}

// TransformValue は1つの値をスケーリングする
func (m *MinMaxScaler) TransformValue(v float64) float64 {
	return (v - m.DataMin) / m.Scale
}

// FitTransform は系列で学習し、同じ系列を変換する
func (m *MinMaxScaler) FitTransform(values []float64) ([]float64, error) {
	if err := m.Fit(values); err != nil {
		return nil, err
	}
	return m.Transform(values)
}

// InverseTransform はスケーリングされた値を元の範囲に戻す
func (m *MinMaxScaler) InverseTransform(values []float64) ([]float64, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("MinMaxScaler", "InverseTransform")
	}

	result := make([]float64, len(values))
	for i, v := range values {
		result[i] = m.InverseTransformValue(v)
	}
	return result, nil
}

// InverseTransformValue は1つの値を元の範囲に戻す
func (m *MinMaxScaler) InverseTransformValue(v float64) float64 {
	return v*m.Scale + m.DataMin
}

// IsDegenerate は学習データの値域が0だったかどうかを返す
func (m *MinMaxScaler) IsDegenerate() bool {
	return m.degenerate
}

// Range は学習データの値域 (max - min) を返す。退化している場合は0。
func (m *MinMaxScaler) Range() float64 {
	return m.DataMax - m.DataMin
}

// String はスケーラーの文字列表現を返す
func (m *MinMaxScaler) String() string {
	if !m.IsFitted() {
		return "MinMaxScaler()"
	}
	return fmt.Sprintf("MinMaxScaler(min=%g, max=%g, n_samples=%d)", m.DataMin, m.DataMax, m.NSamples)
}

// Normalize は系列を (v - min) / (max - min) で [0,1] に写像する
//
// 値域が0の場合は写像が定義できないため DegenerateDataError を返す。
// 定数系列を0に写像するフォールバックが必要な場合は MinMaxScaler を直接使う。
func Normalize(values []float64) ([]float64, error) {
	scaler := NewMinMaxScaler()
	if err := scaler.Fit(values); err != nil {
		return nil, err
	}
	if scaler.IsDegenerate() {
		return nil, errors.NewDegenerateDataError("preprocessing.Normalize", "value range", scaler.Range(), 0, errors.ErrZeroRange)
	}
	return scaler.Transform(values)
}
