//go:build dynag

package dynag

// #cgo CFLAGS: -O2
// #cgo LDFLAGS: -lDynaG-dynamics -lstdc++
// #include <stdbool.h>
// #include <stdlib.h>
//
// typedef struct DynamicSystem DynamicSystem;
//
// DynamicSystem* createHelicopterDynamics(char* yaml_path, float* dt);
// bool ready();
//
// float* getAllAction(DynamicSystem* DS, int* size_s);
// float* getAllNormalizedAction(DynamicSystem* DS, int* size_s);
// float* getAction(DynamicSystem* DS, char* name, int* size_s);
// float* getNormalizedAction(DynamicSystem* DS, char* name, int* size_s);
//
// float* getAllState(DynamicSystem* DS, int* size_s);
// float* getAllNormalizedState(DynamicSystem* DS, int* size_s);
// float* getState(DynamicSystem* DS, char* name, int* size_s);
// float* getNormalizedState(DynamicSystem* DS, char* name, int* size_s);
//
// float* getAllStateDot(DynamicSystem* DS, int* size_s);
// float* getAllNormalizedStateDot(DynamicSystem* DS, int* size_s);
// float* getStateDot(DynamicSystem* DS, char* name, int* size_s);
// float* getNormalizedStateDot(DynamicSystem* DS, char* name, int* size_s);
//
// float* getAllObservation(DynamicSystem* DS, int* size_s);
// float* getAllNormalizedObservation(DynamicSystem* DS, int* size_s);
// float* getObservation(DynamicSystem* DS, char* name, int* size_s);
// float* getNormalizedObservation(DynamicSystem* DS, char* name, int* size_s);
//
// float getValueFromYamlNode(DynamicSystem* DS, char* node_name, char* var_name);
// void setValueInYamlNode(DynamicSystem* DS, char* node_name, char* var_name, float* value);
//
// void step(DynamicSystem* DS, float* action);
// void reset(DynamicSystem* DS);
// int getNumberOfObservations(DynamicSystem* DS);
import "C"

import (
	"fmt"
	"unsafe"
)

// Dynamics is a handle to a helicopter dynamics instance. The engine
// keeps process-wide state, so only one Dynamics should be used at a
// time.
type Dynamics struct {
	ds *C.DynamicSystem
}

// New creates the dynamics of the helicopter described by the
// parameter file at yamlPath, stepping by dt
func New(yamlPath string, dt float64) (*Dynamics, error) {
	path := C.CString(yamlPath)
	defer C.free(unsafe.Pointer(path))

	cdt := C.float(dt)
	ds := C.createHelicopterDynamics(path, &cdt)
	if ds == nil {
		return nil, fmt.Errorf("new: could not create dynamics from %v",
			yamlPath)
	}
	return &Dynamics{ds: ds}, nil
}

// Ready returns whether the simulation is in a valid numerical state
func (d *Dynamics) Ready() bool {
	return bool(C.ready())
}

// Reset resets the dynamics from the trim conditions of the parameter
// file
func (d *Dynamics) Reset() {
	C.reset(d.ds)
}

// Step advances the dynamics by one timestep
func (d *Dynamics) Step(action []float64) {
	a := make([]C.float, len(action))
	for i, v := range action {
		a[i] = C.float(v)
	}
	C.step(d.ds, &a[0])
}

// All returns every vector of the given kind concatenated. The result
// is empty for an unknown kind.
func (d *Dynamics) All(k Kind, normalized bool) []float64 {
	var size C.int
	var ptr *C.float

	switch k {
	case Observation:
		if normalized {
			ptr = C.getAllNormalizedObservation(d.ds, &size)
		} else {
			ptr = C.getAllObservation(d.ds, &size)
		}
	case State:
		if normalized {
			ptr = C.getAllNormalizedState(d.ds, &size)
		} else {
			ptr = C.getAllState(d.ds, &size)
		}
	case StateDot:
		if normalized {
			ptr = C.getAllNormalizedStateDot(d.ds, &size)
		} else {
			ptr = C.getAllStateDot(d.ds, &size)
		}
	case Action:
		if normalized {
			ptr = C.getAllNormalizedAction(d.ds, &size)
		} else {
			ptr = C.getAllAction(d.ds, &size)
		}
	}

	return f32SliceC2Go(ptr, int(size))
}

// Get returns the named vector of the given kind. The result is empty
// if the engine does not know the name.
func (d *Dynamics) Get(k Kind, name string, normalized bool) []float64 {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	var size C.int
	var ptr *C.float

	switch k {
	case Observation:
		if normalized {
			ptr = C.getNormalizedObservation(d.ds, cname, &size)
		} else {
			ptr = C.getObservation(d.ds, cname, &size)
		}
	case State:
		if normalized {
			ptr = C.getNormalizedState(d.ds, cname, &size)
		} else {
			ptr = C.getState(d.ds, cname, &size)
		}
	case StateDot:
		if normalized {
			ptr = C.getNormalizedStateDot(d.ds, cname, &size)
		} else {
			ptr = C.getStateDot(d.ds, cname, &size)
		}
	case Action:
		if normalized {
			ptr = C.getNormalizedAction(d.ds, cname, &size)
		} else {
			ptr = C.getAction(d.ds, cname, &size)
		}
	}

	return f32SliceC2Go(ptr, int(size))
}

// Value returns a value of the parameter file
func (d *Dynamics) Value(node, key string) float64 {
	cnode := C.CString(node)
	defer C.free(unsafe.Pointer(cnode))
	ckey := C.CString(key)
	defer C.free(unsafe.Pointer(ckey))

	return float64(C.getValueFromYamlNode(d.ds, cnode, ckey))
}

// SetValue sets a value of the parameter file. The engine persists
// the file.
func (d *Dynamics) SetValue(node, key string, value float64) {
	cnode := C.CString(node)
	defer C.free(unsafe.Pointer(cnode))
	ckey := C.CString(key)
	defer C.free(unsafe.Pointer(ckey))

	v := C.float(value)
	C.setValueInYamlNode(d.ds, cnode, ckey, &v)
}

// NumberOfObservations returns the length of the observation vector
func (d *Dynamics) NumberOfObservations() int {
	return int(C.getNumberOfObservations(d.ds))
}

// Close releases the handle. The library offers no way to free the
// dynamics themselves.
func (d *Dynamics) Close() {
	d.ds = nil
}

// f32SliceC2Go converts a copy of a C float array to a Go []float64
func f32SliceC2Go(array *C.float, n int) []float64 {
	if array == nil || n <= 0 {
		return nil
	}
	list := unsafe.Slice((*float32)(unsafe.Pointer(array)), n)

	out := make([]float64, n)
	for i, v := range list {
		out[i] = float64(v)
	}
	return out
}
