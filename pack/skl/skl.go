package skl

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/telltale_converter/hashdb"
	"github.com/mogaika/telltale_converter/pack/msv"
	"github.com/mogaika/telltale_converter/utils"
)

const FILE_EXTENSION = ".skl"

var ErrCorruptSkeleton = errors.New("corrupt skeleton")

// Joint is one bone of the rest pose hierarchy. Rest transforms carry
// no scale.
type Joint struct {
	Id          hashdb.HashedString
	Parent      int // -1 for roots
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
}

type Skeleton struct {
	Joints              []Joint
	InverseBindMatrices []mgl32.Mat4
}

// smallest possible serialized joint, used to sanity check the joint
// count against the remaining payload
const minJointSize = 0xB0

func Parse(b []byte, wlog *utils.WorkerLog) (*Skeleton, error) {
	bs := utils.NewBufStack("skl", b)

	if _, err := msv.ParseHeader(bs); err != nil {
		return nil, err
	}

	_ = bs.ReadLU32() // payload size
	jointCount := bs.ReadLU32()
	if err := bs.Err(); err != nil {
		return nil, err
	}
	if int(jointCount) > bs.Remaining()/minJointSize {
		return nil, errors.Wrapf(ErrCorruptSkeleton,
			"joint count %d cannot fit in 0x%x payload bytes", jointCount, bs.Remaining())
	}

	s := &Skeleton{
		Joints: make([]Joint, 0, jointCount),
	}
	for i := uint32(0); i < jointCount; i++ {
		s.Joints = append(s.Joints, parseJoint(bs))
		if err := bs.Err(); err != nil {
			return nil, err
		}
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	s.InverseBindMatrices = calculateInverseBindMatrices(s.Joints)

	wlog.Verbosef("Skeleton with %d joints:\n%s", len(s.Joints), bs.StringTree())
	wlog.Verbosef("Joints:\n%v", utils.SDump(s.Joints))
	return s, nil
}

func parseJoint(bs *utils.BufStack) Joint {
	joint := Joint{
		Id:     hashdb.Lookup(bs.ReadLU64()),
		Parent: -1,
	}

	_ = bs.ReadLU64() // parent checksum, the index below is authoritative
	parentIndex := bs.ReadLU32()
	// roots are marked with huge placeholder indices
	if parentIndex <= 1000000 {
		joint.Parent = int(parentIndex)
	}
	bs.Skip(0x0C)

	joint.Translation[0] = bs.ReadLF()
	joint.Translation[1] = bs.ReadLF()
	joint.Translation[2] = bs.ReadLF()

	x, y, z, w := bs.ReadLF(), bs.ReadLF(), bs.ReadLF(), bs.ReadLF()
	joint.Rotation = mgl32.Quat{W: w, V: mgl32.Vec3{x, y, z}}

	bs.Skip(0x48)
	bs.Skip(int(bs.ReadLU32()) * 0x0C)
	bs.Skip(0x04)
	bs.Skip(int(bs.ReadLU32()) * 0x0C)
	bs.Skip(0x20)

	return joint
}

// validate rejects out of range parents and parent cycles before any
// code walks the hierarchy.
func (s *Skeleton) validate() error {
	for i := range s.Joints {
		if s.Joints[i].Parent >= len(s.Joints) {
			return errors.Wrapf(ErrCorruptSkeleton,
				"joint %d (%v) parent %d out of range", i, s.Joints[i].Id, s.Joints[i].Parent)
		}

		steps := 0
		for p := s.Joints[i].Parent; p >= 0; p = s.Joints[p].Parent {
			steps++
			if steps > len(s.Joints) {
				return errors.Wrapf(ErrCorruptSkeleton,
					"joint %d (%v) is its own ancestor", i, s.Joints[i].Id)
			}
		}
	}
	return nil
}

func calculateInverseBindMatrices(joints []Joint) []mgl32.Mat4 {
	matrices := make([]mgl32.Mat4, len(joints))
	computed := make([]bool, len(joints))

	var forJoint func(index int) mgl32.Mat4
	forJoint = func(index int) mgl32.Mat4 {
		if computed[index] {
			return matrices[index]
		}
		joint := &joints[index]

		m := utils.TranslationRotationMat4(joint.Translation, joint.Rotation).Inv()
		// float drift on the homogeneous corner upsets strict viewers
		if mgl32.Abs(m[15]-1.0) < 0.0001 {
			m[15] = 1.0
		}
		if joint.Parent >= 0 {
			m = m.Mul4(forJoint(joint.Parent))
		}

		matrices[index] = m
		computed[index] = true
		return m
	}

	for i := range joints {
		forJoint(i)
	}
	return matrices
}

// JointByHash finds the joint slot for a mesh bone palette entry.
func (s *Skeleton) JointByHash(hash uint64) int {
	for i := range s.Joints {
		if s.Joints[i].Id.Hash == hash {
			return i
		}
	}
	return -1
}

// Roots lists the indices of joints without a parent.
func (s *Skeleton) Roots() []int {
	roots := make([]int, 0, 1)
	for i := range s.Joints {
		if s.Joints[i].Parent < 0 {
			roots = append(roots, i)
		}
	}
	return roots
}
