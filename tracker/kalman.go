package tracker

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// MeasureBox represents a 1x4 (x, y, w, h) measurement using a slice of
// float32, where x,y is the box center
type MeasureBox []float32

// StateMean represents a 1x8 matrix using a slice of float32
type StateMean []float32

// StateCov represents an 8x8 matrix
type StateCov struct {
	*mat.Dense
}

// StateHMean represents a 1x4 matrix using a slice of float32
type StateHMean []float32

// process noise variances for the constant velocity model.  Velocity in the
// x,y plane is never directly observed so it carries a looser variance to
// adapt quickly to real motion changes
var processNoise = [8]float64{0.01, 0.01, 0.01, 0.01, 0.1, 0.1, 0.01, 0.01}

// measurement noise variances.  Box sizes from a detector are noisier than
// positions so w,h carry a looser variance
var measureNoise = [4]float64{0.1, 0.1, 0.5, 0.5}

// initial covariance variances used at track creation.  Velocities start
// unknown
var initNoise = [8]float64{0.1, 0.1, 0.5, 0.5, 1.0, 1.0, 1.0, 1.0}

// KalmanFilter is a constant velocity Kalman filter over the 8 dimensional
// state (x, y, w, h, vx, vy, vw, vh) with (x, y, w, h) measurements, where
// x,y is the box center and w,h the box size
type KalmanFilter struct {
	motionMat *mat.Dense
	updateMat *mat.Dense
}

// NewKalmanFilter initializes and returns a new KalmanFilter
func NewKalmanFilter() *KalmanFilter {

	ndim := 4
	dt := 1.0

	// create identity matrix for motionMat with dt terms coupling each
	// position/size component to its velocity
	motionMat := mat.NewDense(8, 8, nil)

	for i := 0; i < 8; i++ {
		motionMat.Set(i, i, 1.0)
	}

	for i := 0; i < ndim; i++ {
		motionMat.Set(i, ndim+i, dt)
	}

	// create updateMat as a 4x8 matrix with first 4 diagonal elements set
	// to 1
	updateMat := mat.NewDense(4, 8, nil)

	for i := 0; i < 4; i++ {
		updateMat.Set(i, i, 1.0)
	}

	return &KalmanFilter{
		motionMat: motionMat,
		updateMat: updateMat,
	}
}

// Initiate sets the state mean and covariance directly from the first
// measurement.  Velocity components start at zero, no correction step is
// performed
func (kf *KalmanFilter) Initiate(mean StateMean, covariance *StateCov,
	measurement MeasureBox) {

	// copy the measurement into the position/size part of the mean
	copy(mean[:4], measurement[:4])

	// set the velocity components to 0
	for i := 4; i < 8; i++ {
		mean[i] = 0.0
	}

	// set the diagonal elements of the covariance matrix
	for i := 0; i < 8; i++ {
		covariance.Set(i, i, initNoise[i])
	}
}

// Predict advances the state one frame using the constant velocity motion
// model.  Must be called exactly once per frame step before any Update
func (kf *KalmanFilter) Predict(mean StateMean, covariance *StateCov) {

	// convert the mean state vector to a matrix for multiplication
	meanMat := mat.NewDense(8, 1, nil)

	for i := 0; i < 8; i++ {
		meanMat.Set(i, 0, float64(mean[i]))
	}

	// predict the next state mean using the motion model
	meanMat.Mul(kf.motionMat, meanMat)

	for i := 0; i < 8; i++ {
		mean[i] = float32(meanMat.At(i, 0))
	}

	// create the motion covariance matrix with variances on the diagonal
	motionCov := mat.NewDense(8, 8, nil)

	for i := 0; i < 8; i++ {
		motionCov.Set(i, i, processNoise[i])
	}

	// predict the next state covariance using the motion model
	cov := covariance.Dense
	cov.Mul(kf.motionMat, cov)
	cov.Mul(cov, kf.motionMat.T())
	cov.Add(cov, motionCov)
}

// Update fuses an observed measurement into the state mean and covariance
func (kf *KalmanFilter) Update(mean StateMean, covariance *StateCov,
	measurement MeasureBox) error {

	// project the state mean and covariance to measurement space
	projectedMean, projectedCov := kf.project(mean, covariance)

	// perform Cholesky factorization of the projected covariance matrix
	chol := mat.Cholesky{}

	if ok := chol.Factorize(projectedCov); !ok {
		return errors.New("failed to factorize projected covariance")
	}

	// compute the matrix B for Kalman gain calculation
	B := mat.NewDense(8, 4, nil)
	B.Mul(covariance.Dense, kf.updateMat.T())

	// compute the Kalman gain using the Cholesky factorization
	var kalmanGain mat.Dense
	err := chol.SolveTo(&kalmanGain, B.T())

	if err != nil {
		return fmt.Errorf("failed to compute kalman gain: %w", err)
	}

	// compute the innovation (measurement residual)
	innovation := make([]float64, 4)

	for i := 0; i < 4; i++ {
		innovation[i] = float64(measurement[i] - projectedMean[i])
	}

	// update the state mean with the innovation
	innovationVec := mat.NewVecDense(4, innovation)
	tmp := mat.NewVecDense(8, nil)
	tmp.MulVec(kalmanGain.T(), innovationVec)

	for i := 0; i < 8; i++ {
		mean[i] += float32(tmp.AtVec(i))
	}

	// update the state covariance
	temp := mat.NewDense(8, 4, nil)
	temp.Mul(kalmanGain.T(), projectedCov)

	temp2 := mat.NewDense(8, 8, nil)
	temp2.Mul(temp, &kalmanGain)

	newCov := mat.NewDense(8, 8, nil)
	newCov.Sub(covariance.Dense, temp2)

	covariance.Dense = newCov

	return nil
}

// Extrapolate projects the box the given number of frames forward using the
// current velocity estimate.  The state is not modified, size is carried
// unchanged.  Used for display lookahead only, never for association
func (kf *KalmanFilter) Extrapolate(mean StateMean, steps int) MeasureBox {
	return MeasureBox{
		mean[0] + float32(steps)*mean[4],
		mean[1] + float32(steps)*mean[5],
		mean[2],
		mean[3],
	}
}

// project projects the state mean and covariance to measurement space
func (kf *KalmanFilter) project(mean StateMean,
	covariance *StateCov) (StateHMean, *mat.SymDense) {

	// create the innovation covariance matrix (measurement noise covariance)
	innovationCov := mat.NewSymDense(4, nil)

	for i := 0; i < 4; i++ {
		innovationCov.SetSym(i, i, measureNoise[i])
	}

	// project the state mean to measurement space
	data := make([]float64, 8)

	for i, v := range mean {
		data[i] = float64(v)
	}

	projectedMeanVec := mat.NewVecDense(4, nil)
	projectedMeanVec.MulVec(kf.updateMat, mat.NewVecDense(8, data))

	// project the state covariance to measurement space
	projectedCov := mat.NewSymDense(4, nil)
	temp := mat.NewDense(4, 8, nil)
	temp.Mul(kf.updateMat, covariance.Dense)
	temp2 := mat.NewDense(4, 4, nil)
	temp2.Mul(temp, kf.updateMat.T())

	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			projectedCov.SetSym(i, j, temp2.At(i, j))
		}
	}

	// add the innovation covariance to the projected covariance
	projectedCov.AddSym(projectedCov, innovationCov)

	// convert the projected mean to StateHMean type
	projectedMean := make(StateHMean, 4)

	for i := 0; i < 4; i++ {
		projectedMean[i] = float32(projectedMeanVec.AtVec(i))
	}

	return projectedMean, projectedCov
}
