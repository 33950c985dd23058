package linear

// EstimatePrice は price = theta0 + theta1 * mileage を返す
// 走行距離の定義域は検証しない（負の値や0もそのまま計算する）
func EstimatePrice(mileage, theta0, theta1 float64) float64 {
	return theta0 + theta1*mileage
}
