// Package audio implements the acoustic impulse-response sensor.
//
// A Sensor owns one acoustic context created through an [acoustics.Engine].
// Scene geometry is ingested lazily on the first RunSimulation after the
// context is (re)created; transforms are buffered and pushed right before
// each simulation. Only construction reports errors. Every later failure is
// logged and surfaces as a false, nil or zero return value.
//
// Lifecycle:
//
//	Uninitialized --RunSimulation--> Loaded
//	Loaded --SetAudioMaterialsJSON / SetListenerHRTF--> Dirty
//	Dirty --RunSimulation--> Loaded (context recreated, geometry re-ingested)
//	any --Reset / Close--> Uninitialized
//
// Builds with the noaudio tag have no propagation engine. [New] then returns
// an inert sensor whose methods all return neutral values.
package audio
