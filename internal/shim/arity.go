package shim

import (
	"github.com/CosmWasm/goffi/internal/coerce"
	"github.com/CosmWasm/goffi/types"
)

// fixed holds one constructor per arity 0..9. Each captures its rules in
// locals and coerces straight into a fixed-size array, with no loop over the
// parameter list.
var fixed = [...]func(name string, r []coerce.Rule, inv types.Invoker) call{
	arity0, arity1, arity2, arity3, arity4, arity5, arity6, arity7, arity8, arity9,
}

func arity0(_ string, _ []coerce.Rule, inv types.Invoker) call {
	return func([]any) (any, error) {
		return inv(nil)
	}
}

func arity1(name string, r []coerce.Rule, inv types.Invoker) call {
	r0 := r[0]
	return func(args []any) (any, error) {
		var n [1]any
		var err error
		if n[0], err = r0(at(args, 0)); err != nil {
			return nil, argErr(name, 0, err)
		}
		return inv(n[:])
	}
}

func arity2(name string, r []coerce.Rule, inv types.Invoker) call {
	r0, r1 := r[0], r[1]
	return func(args []any) (any, error) {
		var n [2]any
		var err error
		if n[0], err = r0(at(args, 0)); err != nil {
			return nil, argErr(name, 0, err)
		}
		if n[1], err = r1(at(args, 1)); err != nil {
			return nil, argErr(name, 1, err)
		}
		return inv(n[:])
	}
}

func arity3(name string, r []coerce.Rule, inv types.Invoker) call {
	r0, r1, r2 := r[0], r[1], r[2]
	return func(args []any) (any, error) {
		var n [3]any
		var err error
		if n[0], err = r0(at(args, 0)); err != nil {
			return nil, argErr(name, 0, err)
		}
		if n[1], err = r1(at(args, 1)); err != nil {
			return nil, argErr(name, 1, err)
		}
		if n[2], err = r2(at(args, 2)); err != nil {
			return nil, argErr(name, 2, err)
		}
		return inv(n[:])
	}
}

func arity4(name string, r []coerce.Rule, inv types.Invoker) call {
	r0, r1, r2, r3 := r[0], r[1], r[2], r[3]
	return func(args []any) (any, error) {
		var n [4]any
		var err error
		if n[0], err = r0(at(args, 0)); err != nil {
			return nil, argErr(name, 0, err)
		}
		if n[1], err = r1(at(args, 1)); err != nil {
			return nil, argErr(name, 1, err)
		}
		if n[2], err = r2(at(args, 2)); err != nil {
			return nil, argErr(name, 2, err)
		}
		if n[3], err = r3(at(args, 3)); err != nil {
			return nil, argErr(name, 3, err)
		}
		return inv(n[:])
	}
}

func arity5(name string, r []coerce.Rule, inv types.Invoker) call {
	r0, r1, r2, r3, r4 := r[0], r[1], r[2], r[3], r[4]
	return func(args []any) (any, error) {
		var n [5]any
		var err error
		if n[0], err = r0(at(args, 0)); err != nil {
			return nil, argErr(name, 0, err)
		}
		if n[1], err = r1(at(args, 1)); err != nil {
			return nil, argErr(name, 1, err)
		}
		if n[2], err = r2(at(args, 2)); err != nil {
			return nil, argErr(name, 2, err)
		}
		if n[3], err = r3(at(args, 3)); err != nil {
			return nil, argErr(name, 3, err)
		}
		if n[4], err = r4(at(args, 4)); err != nil {
			return nil, argErr(name, 4, err)
		}
		return inv(n[:])
	}
}

func arity6(name string, r []coerce.Rule, inv types.Invoker) call {
	r0, r1, r2, r3, r4, r5 := r[0], r[1], r[2], r[3], r[4], r[5]
	return func(args []any) (any, error) {
		var n [6]any
		var err error
		if n[0], err = r0(at(args, 0)); err != nil {
			return nil, argErr(name, 0, err)
		}
		if n[1], err = r1(at(args, 1)); err != nil {
			return nil, argErr(name, 1, err)
		}
		if n[2], err = r2(at(args, 2)); err != nil {
			return nil, argErr(name, 2, err)
		}
		if n[3], err = r3(at(args, 3)); err != nil {
			return nil, argErr(name, 3, err)
		}
		if n[4], err = r4(at(args, 4)); err != nil {
			return nil, argErr(name, 4, err)
		}
		if n[5], err = r5(at(args, 5)); err != nil {
			return nil, argErr(name, 5, err)
		}
		return inv(n[:])
	}
}

func arity7(name string, r []coerce.Rule, inv types.Invoker) call {
	r0, r1, r2, r3, r4, r5, r6 := r[0], r[1], r[2], r[3], r[4], r[5], r[6]
	return func(args []any) (any, error) {
		var n [7]any
		var err error
		if n[0], err = r0(at(args, 0)); err != nil {
			return nil, argErr(name, 0, err)
		}
		if n[1], err = r1(at(args, 1)); err != nil {
			return nil, argErr(name, 1, err)
		}
		if n[2], err = r2(at(args, 2)); err != nil {
			return nil, argErr(name, 2, err)
		}
		if n[3], err = r3(at(args, 3)); err != nil {
			return nil, argErr(name, 3, err)
		}
		if n[4], err = r4(at(args, 4)); err != nil {
			return nil, argErr(name, 4, err)
		}
		if n[5], err = r5(at(args, 5)); err != nil {
			return nil, argErr(name, 5, err)
		}
		if n[6], err = r6(at(args, 6)); err != nil {
			return nil, argErr(name, 6, err)
		}
		return inv(n[:])
	}
}

func arity8(name string, r []coerce.Rule, inv types.Invoker) call {
	r0, r1, r2, r3, r4, r5, r6, r7 := r[0], r[1], r[2], r[3], r[4], r[5], r[6], r[7]
	return func(args []any) (any, error) {
		var n [8]any
		var err error
		if n[0], err = r0(at(args, 0)); err != nil {
			return nil, argErr(name, 0, err)
		}
		if n[1], err = r1(at(args, 1)); err != nil {
			return nil, argErr(name, 1, err)
		}
		if n[2], err = r2(at(args, 2)); err != nil {
			return nil, argErr(name, 2, err)
		}
		if n[3], err = r3(at(args, 3)); err != nil {
			return nil, argErr(name, 3, err)
		}
		if n[4], err = r4(at(args, 4)); err != nil {
			return nil, argErr(name, 4, err)
		}
		if n[5], err = r5(at(args, 5)); err != nil {
			return nil, argErr(name, 5, err)
		}
		if n[6], err = r6(at(args, 6)); err != nil {
			return nil, argErr(name, 6, err)
		}
		if n[7], err = r7(at(args, 7)); err != nil {
			return nil, argErr(name, 7, err)
		}
		return inv(n[:])
	}
}

func arity9(name string, r []coerce.Rule, inv types.Invoker) call {
	r0, r1, r2, r3, r4, r5, r6, r7, r8 := r[0], r[1], r[2], r[3], r[4], r[5], r[6], r[7], r[8]
	return func(args []any) (any, error) {
		var n [9]any
		var err error
		if n[0], err = r0(at(args, 0)); err != nil {
			return nil, argErr(name, 0, err)
		}
		if n[1], err = r1(at(args, 1)); err != nil {
			return nil, argErr(name, 1, err)
		}
		if n[2], err = r2(at(args, 2)); err != nil {
			return nil, argErr(name, 2, err)
		}
		if n[3], err = r3(at(args, 3)); err != nil {
			return nil, argErr(name, 3, err)
		}
		if n[4], err = r4(at(args, 4)); err != nil {
			return nil, argErr(name, 4, err)
		}
		if n[5], err = r5(at(args, 5)); err != nil {
			return nil, argErr(name, 5, err)
		}
		if n[6], err = r6(at(args, 6)); err != nil {
			return nil, argErr(name, 6, err)
		}
		if n[7], err = r7(at(args, 7)); err != nil {
			return nil, argErr(name, 7, err)
		}
		if n[8], err = r8(at(args, 8)); err != nil {
			return nil, argErr(name, 8, err)
		}
		return inv(n[:])
	}
}

// variadic handles ten or more parameters.
func variadic(name string, r []coerce.Rule, inv types.Invoker) call {
	return func(args []any) (any, error) {
		n := make([]any, len(r))
		for i, rule := range r {
			v, err := rule(at(args, i))
			if err != nil {
				return nil, argErr(name, i, err)
			}
			n[i] = v
		}
		return inv(n)
	}
}
