package msp

// Command codes.
const (
	// RawIMU reads raw accelerometer, gyro and magnetometer values.
	// The request has no payload and the response carries at least
	// 3 int16 accelerometer values.
	RawIMU byte = 102
	// SetMotor sets throttle of all motor channels. The data request
	// carries MotorChannels int16 values and must be followed by a
	// zero-length commit request with the same code.
	SetMotor byte = 214
)

// MotorChannels is the number of throttle values in a SetMotor payload.
const MotorChannels = 8

// CodeName returns a readable name of a command code.
func CodeName(code byte) string {
	switch code {
	case RawIMU:
		return "RAW_IMU"
	case SetMotor:
		return "SET_MOTOR"
	}
	return "UNKNOWN"
}
