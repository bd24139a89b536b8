package mathutil

// Preview camera matrices. Characters are authored Y-up, facing +Z.
var (
	// MirrorX flips the horizontal axis so the character's left shows on screen left.
	MirrorX = Mat3Diag(-1, 1, 1)

	// PreviewFront looks at the character slightly from above and to the side.
	// MIRROR_X @ Rx(-12°) @ Ry(200°)
	PreviewFront = Mat3Mul(Mat3Mul(MirrorX, RotX(Deg2Rad(-12))), RotY(Deg2Rad(200)))

	// PreviewSide is a three-quarter view, used when the front view hides the cut.
	PreviewSide = Mat3Mul(Mat3Mul(MirrorX, RotX(Deg2Rad(-12))), RotY(Deg2Rad(245)))
)

// Epsilon is the squared-length cutoff below which a direction is treated as degenerate.
const Epsilon = 1e-6
