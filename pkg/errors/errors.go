// Package errors はプロジェクト全体のエラーハンドリングと警告システムを提供します。
// 学習・評価・パラメータ保存の各段階で発生する失敗を構造化された型で表現します。
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("carprice-warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler は警告ハンドラを設定します。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
// nil を渡すと従来のハンドラに戻ります。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが設定されている場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// UndefinedMetricWarning は評価指標が計算できない場合に発生する警告です。
// 例えば、価格がすべて同じ値で決定係数の分母が0になる場合など。
type UndefinedMetricWarning struct {
	Metric    string
	Condition string
	Result    float64 // この条件で返される値
}

func (w *UndefinedMetricWarning) Error() string {
	return fmt.Sprintf("'%s' is ill-defined and being set to %f due to %s.", w.Metric, w.Result, w.Condition)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *UndefinedMetricWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("metric", w.Metric).
		Str("condition", w.Condition).
		Float64("result", w.Result).
		Str("type", "UndefinedMetricWarning")
}

// NewUndefinedMetricWarning は新しいUndefinedMetricWarningを作成します。
func NewUndefinedMetricWarning(metric, condition string, result float64) *UndefinedMetricWarning {
	return &UndefinedMetricWarning{Metric: metric, Condition: condition, Result: result}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// NotFittedError はモデルが未学習の状態で `Predict` や `Score` を呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("carprice: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// InputShapeError は入力系列の形状が不正な場合のエラーです。
// 走行距離と価格の系列長が異なる場合や、系列が空の場合に発生します。
type InputShapeError struct {
	Op       string // 発生した操作（例: "linear.Gradients"）
	Expected int    // 期待される長さ（走行距離の系列長）
	Got      int    // 実際の長さ（価格の系列長）
	Reason   string
}

func (e *InputShapeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("carprice: %s: input shape error: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("carprice: %s: input shape mismatch. Expected length %d, got %d", e.Op, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *InputShapeError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Str("reason", e.Reason).
		Str("type", "InputShapeError")
}

// NewInputShapeError は長さ不一致のInputShapeErrorを作成します。
func NewInputShapeError(op string, expected, got int) error {
	err := &InputShapeError{Op: op, Expected: expected, Got: got}
	return errors.WithStack(err)
}

// NewEmptyInputError は空の系列に対するInputShapeErrorを作成します。
// ErrEmptyData でラップされるため errors.Is で判定できます。
func NewEmptyInputError(op string) error {
	err := &InputShapeError{Op: op, Reason: "empty data"}
	return errors.WithStack(errors.Mark(err, ErrEmptyData))
}

// DegenerateDataError はデータが退化していて計算が定義できない場合のエラーです。
// 値域が0の正規化や、分散が0の決定係数がこれに当たります。
type DegenerateDataError struct {
	Op       string
	Quantity string  // 退化している量（例: "mileage range", "price variance"）
	Value    float64 // 退化した値そのもの（通常は0）
	Fallback float64 // 呼び出し側に返される値
}

func (e *DegenerateDataError) Error() string {
	return fmt.Sprintf("carprice: %s: degenerate data: %s is %g (result set to %g)", e.Op, e.Quantity, e.Value, e.Fallback)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DegenerateDataError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("quantity", e.Quantity).
		Float64("value", e.Value).
		Float64("fallback", e.Fallback).
		Str("type", "DegenerateDataError")
}

// NewDegenerateDataError は新しいDegenerateDataErrorを作成します。
// cause には ErrZeroRange または ErrZeroVariance を渡します。
func NewDegenerateDataError(op, quantity string, value, fallback float64, cause error) error {
	err := &DegenerateDataError{Op: op, Quantity: quantity, Value: value, Fallback: fallback}
	if cause != nil {
		return errors.WithStack(errors.Mark(err, cause))
	}
	return errors.WithStack(err)
}

// ParameterStoreError は保存されたパラメータが読み込めない場合のエラーです。
// 予測は続行できないため、呼び出し側は再学習を促す必要があります。
type ParameterStoreError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ParameterStoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("carprice: parameter store %q: %s: %v. Run training first", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("carprice: parameter store %q: %s. Run training first", e.Path, e.Reason)
}

func (e *ParameterStoreError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ParameterStoreError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("path", e.Path).
		Str("reason", e.Reason).
		Str("type", "ParameterStoreError")
}

// NewParameterStoreError は新しいParameterStoreErrorを作成し、スタックトレースを付与します。
func NewParameterStoreError(path, reason string, err error) error {
	storeErr := &ParameterStoreError{Path: path, Reason: reason, Err: err}
	return errors.WithStack(storeErr)
}

// ValidationError は入力パラメータの検証に失敗した場合のエラーです。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("carprice: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("carprice: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ModelError はモデルに関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("carprice: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("carprice: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
}

// NumericalInstabilityError は数値計算が不安定になった場合のエラーです。
// 学習率が大きすぎてパラメータが発散した場合などに NaN や Inf を検出します。
type NumericalInstabilityError struct {
	Operation string    // 発生した操作（例: "gradient_descent"）
	Values    []float64 // 問題のある値
	Iteration int       // 発生したイテレーション番号
}

func (e *NumericalInstabilityError) Error() string {
	valStr := ""
	for i, v := range e.Values {
		if i > 0 {
			valStr += ", "
		}
		if i >= 5 {
			valStr += "..."
			break
		}
		valStr += fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("carprice: numerical instability detected in %s at iteration %d. Values: [%s]",
		e.Operation, e.Iteration, valStr)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NumericalInstabilityError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Operation).
		Floats64("values", e.Values).
		Int("iteration", e.Iteration).
		Str("type", "NumericalInstabilityError")
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, values []float64, iteration int) error {
	err := &NumericalInstabilityError{
		Operation: operation,
		Values:    values,
		Iteration: iteration,
	}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrZeroRange は最小値と最大値が等しく正規化できない場合のエラーです。
	ErrZeroRange = New("zero range")

	// ErrZeroVariance は目的変数の分散が0の場合のエラーです。
	ErrZeroVariance = New("zero variance")
)
