package capture

// FakeSensor is a test double that records edge polarity requests.
type FakeSensor struct {
	// Rising is true when rising edge sensing is selected.
	Rising bool
	// Selections counts every polarity request.
	Selections int
}

// SelectRisingEdge records a rising edge request.
func (f *FakeSensor) SelectRisingEdge() {
	f.Rising = true
	f.Selections++
}

// SelectFallingEdge records a falling edge request.
func (f *FakeSensor) SelectFallingEdge() {
	f.Rising = false
	f.Selections++
}
