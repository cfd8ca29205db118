// Package raytrace is a reference geometric-acoustics engine implementing
// [acoustics.Engine].
//
// The engine is intentionally simple:
//
//   - Direct sound follows the straight path between source and listener and
//     is dropped when occluded (unless transmission is enabled, in which case
//     every crossed surface attenuates it by its transmission coefficient).
//   - Indirect sound traces IndirectRayCount listener rays distributed on a
//     Fibonacci sphere. At each specular bounce a shadow ray connects the hit
//     point to the source; unoccluded connections add an arrival whose band
//     energy is the product of (1 - absorption) along the path.
//   - Arrivals are accumulated per frequency band and spatialized for the
//     listener's channel layout (mono, spherical-head binaural, or ACN/SN3D
//     ambisonics up to second order). Bands are then merged with FFT masks
//     that partition the spectrum, so a broadband arrival is reconstructed
//     as a single impulse.
//
// Diffraction, scattering and area sources are not modeled; the matching
// [acoustics.ContextConfig] fields are accepted and ignored.
package raytrace
