package utils

import (
	"github.com/go-gl/mathgl/mgl32"
)

// TranslationRotationMat4 composes a rest transform matrix from a
// translation and a rotation. Containers store no bone scale.
func TranslationRotationMat4(translation mgl32.Vec3, rotation mgl32.Quat) mgl32.Mat4 {
	return mgl32.Translate3D(translation.X(), translation.Y(), translation.Z()).
		Mul4(rotation.Mat4())
}
