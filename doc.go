// Package carprice estimates the price of a car from its mileage with a
// univariate linear regression trained by batch gradient descent.
//
// Training normalizes mileage and price to [0,1], runs a fixed number of
// simultaneous updates of (theta0, theta1) from (0,0), maps the result back to
// the raw scale and saves it as JSON. Prediction loads the saved parameters
// and evaluates price = theta0 + theta1 * mileage.
//
// # Packages
//
//   - preprocessing: MinMaxScaler and Normalize
//   - linear: cost, gradients, GradientDescent, Denormalize, Precision and the Regression estimator
//   - metrics: R², MSE, RMSE, MAE
//   - dataset: CSV loading of km/price samples
//   - core/model: fitted state and the Theta0/Theta1 parameter store
//   - plotting: regression and cost plots
//   - app, cli, cmd/carprice: orchestration and the command line
//
// # Quick Start
//
//	reg := linear.NewRegression(linear.WithLearningRate(0.1), linear.WithIterations(1000))
//	if err := reg.Fit(ctx, mileage, price); err != nil {
//	    log.Fatal(err)
//	}
//	p, _ := reg.Params()
//	fmt.Printf("Estimated price: %.2f €\n", p.Predict(42000))
//
// From the command line:
//
//	carprice train --mode report
//	carprice predict 42000
package carprice
