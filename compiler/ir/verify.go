package ir

import (
	"tlog.app/go/errors"

	"github.com/slowlang/sysyc/compiler/tp"
)

// Verify checks block structure of every defined function.
func (p *Program) Verify() error {
	for fi, f := range p.Funcs {
		for _, b := range f.Blocks {
			bd := p.Blocks[b]

			if bd.Func != Func(fi) {
				return errors.New("func %v: block %v belongs to func %d", f.Name, bd.Name, bd.Func)
			}

			if len(bd.Insts) == 0 {
				return errors.New("func %v: block %v is empty", f.Name, bd.Name)
			}

			for i, v := range bd.Insts {
				d := p.Values[v]

				if d.Block != b {
					return errors.New("func %v: block %v: value %d recorded in block %d", f.Name, bd.Name, v, d.Block)
				}

				last := i == len(bd.Insts)-1

				if term := IsTerminator(d.Kind); term != last {
					if last {
						return errors.New("func %v: block %v is not terminated", f.Name, bd.Name)
					}

					return errors.New("func %v: block %v: terminator at %d of %d", f.Name, bd.Name, i, len(bd.Insts))
				}

				if r, ok := d.Kind.(Return); ok {
					err := p.checkReturn(f, r)
					if err != nil {
						return errors.Wrap(err, "func %v: block %v", f.Name, bd.Name)
					}
				}

				for _, t := range Targets(d.Kind) {
					if p.Blocks[t].Func != Func(fi) {
						return errors.New("func %v: block %v: jump to foreign block %v", f.Name, bd.Name, p.Blocks[t].Name)
					}
				}
			}
		}
	}

	return nil
}

func (p *Program) checkReturn(f *FuncData, r Return) error {
	if r.Value == NoValue {
		if !tp.IsUnit(f.Type.Out) {
			return errors.New("ret without value in %v function", f.Type.Out)
		}

		return nil
	}

	if t := p.Values[r.Value].Type; !tp.Equal(t, f.Type.Out) {
		return errors.New("ret %v in %v function", t, f.Type.Out)
	}

	return nil
}
