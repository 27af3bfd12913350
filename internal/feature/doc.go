// Package feature derives compact numeric descriptors from decoded images.
//
// The feature vector (aspect ratio, brightness, contrast, entropy, edge
// density) is deliberately cheap and transform-tolerant: it survives
// rotation and rescaling far better than pixel hashes do, which is why the
// enhanced similarity detector blends it with hash distances instead of
// relying on hashes alone.
package feature
