package engine

import "fmt"

// PortInUseError indicates a listen port is already taken, either by
// another managed instance or by a foreign process.
type PortInUseError struct {
	Port int
}

func (e *PortInUseError) Error() string {
	return fmt.Sprintf("port %d already in use", e.Port)
}

// ProfileNotFoundError indicates an activation request named an
// undefined profile.
type ProfileNotFoundError struct {
	Name string
}

func (e *ProfileNotFoundError) Error() string {
	return fmt.Sprintf("profile %q not defined", e.Name)
}
