// Package ml provides the small set of regression models used by the space
// optimizer and the energy predictor.
package ml

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ErrEmptyDataset is returned when a model is fitted without samples
var ErrEmptyDataset = errors.New("ml: empty dataset")

// ErrShapeMismatch is returned when rows and targets disagree in length
var ErrShapeMismatch = errors.New("ml: feature rows and targets differ in length")

// Regressor is a trainable single-output regression model
type Regressor interface {
	Fit(X [][]float64, y []float64) error
	Predict(x []float64) float64
}

// FeatureImportancer is implemented by tree models
type FeatureImportancer interface {
	FeatureImportances() []float64
}

// Metrics summarizes how well a model fits training and hold-out data
type Metrics struct {
	TrainMSE float64 `json:"train_mse"`
	TestMSE  float64 `json:"test_mse"`
	TrainR2  float64 `json:"train_r2"`
	TestR2   float64 `json:"test_r2"`
	TestMAE  float64 `json:"test_mae"`
}

func validate(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return ErrEmptyDataset
	}
	if len(X) != len(y) {
		return ErrShapeMismatch
	}
	return nil
}

// PredictAll applies model to every row
func PredictAll(model Regressor, X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = model.Predict(row)
	}
	return out
}

// MSE is the mean squared error
func MSE(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	var sum float64
	for i := range actual {
		d := actual[i] - predicted[i]
		sum += d * d
	}
	return sum / float64(len(actual))
}

// MAE is the mean absolute error
func MAE(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	var sum float64
	for i := range actual {
		sum += math.Abs(actual[i] - predicted[i])
	}
	return sum / float64(len(actual))
}

// R2 is the coefficient of determination. A constant target scores 1 for a
// perfect fit and 0 otherwise.
func R2(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	mean := stat.Mean(actual, nil)
	var ssRes, ssTot float64
	for i := range actual {
		d := actual[i] - predicted[i]
		ssRes += d * d
		t := actual[i] - mean
		ssTot += t * t
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

// Evaluate computes train/test metrics for a fitted model
func Evaluate(model Regressor, split Split) Metrics {
	trainPred := PredictAll(model, split.XTrain)
	testPred := PredictAll(model, split.XTest)
	return Metrics{
		TrainMSE: MSE(split.YTrain, trainPred),
		TestMSE:  MSE(split.YTest, testPred),
		TrainR2:  R2(split.YTrain, trainPred),
		TestR2:   R2(split.YTest, testPred),
		TestMAE:  MAE(split.YTest, testPred),
	}
}
