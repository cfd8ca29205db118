package sensor

// SpaceType describes the structure of an observation.
type SpaceType int

const (
	SpaceTensor SpaceType = iota
)

// DataType is the element type of an observation buffer.
type DataType int

const (
	DataUint8 DataType = iota
	DataFloat32
)

// ObservationSpace declares the shape and element type of a sensor's
// observations. The shape is fixed for the lifetime of the sensor.
type ObservationSpace struct {
	SpaceType SpaceType
	DataType  DataType
	Shape     []int
}

// Size returns the number of elements described by Shape.
func (s ObservationSpace) Size() int {
	if len(s.Shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range s.Shape {
		n *= d
	}
	return n
}

// Observation is one filled observation buffer. Data is row-major over Shape.
type Observation struct {
	Shape []int
	Data  []float32
}

// Reset empties obs while keeping the Data capacity.
func (o *Observation) Reset() {
	o.Shape = o.Shape[:0]
	o.Data = o.Data[:0]
}
