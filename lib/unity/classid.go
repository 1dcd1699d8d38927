// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package unity

import "strconv"

// ClassID is the engine's built-in type discriminant written in an
// asset header ("--- !u!114 &11400000"). The list is not exhaustive;
// any uint32 is a valid ClassID.
type ClassID uint32

const (
	ClassGameObject    ClassID = 1
	ClassMaterial      ClassID = 21
	ClassAnimationClip ClassID = 74

	// ClassMonoBehaviour is also the class of every ScriptableObject
	// asset.
	ClassMonoBehaviour ClassID = 114
)

var classNames = map[ClassID]string{
	ClassGameObject:    "GameObject",
	ClassMaterial:      "Material",
	ClassAnimationClip: "AnimationClip",
	ClassMonoBehaviour: "MonoBehaviour",
}

// String returns the Unity class name, or the decimal ID for classes
// this package does not name.
func (c ClassID) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return strconv.FormatUint(uint64(c), 10)
}
