package gamepad

// Info describes a connected gamepad.
type Info struct {
	ID        string
	Model     string
	Buttons   int
	ButtonMap []int
	Axes      int
	AxesMap   []int
}
