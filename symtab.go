package tinybasic

//
// The symbol table maps variable names to VM slots.  A through Z are
// always bound to slots 0 through 25, so programs written for the
// classic 26 variable dialect see the same layout.  With long names
// enabled, any other name gets the next free slot the first time the
// compiler sees it.  Slots are never reclaimed: CLEAR zeroes values,
// it does not forget names
//

func newSymbolTable(long bool) *symbolTable {

	st := &symbolTable{slots: make(map[string]int), long: long}

	if long {
		st.maxSlots = extendedVariables
	} else {
		st.maxSlots = basicVariables
	}

	for ch := 'A'; ch <= 'Z'; ch++ {
		name := string(ch)
		st.slots[name] = len(st.names)
		st.names = append(st.names, name)
	}

	return st
}

//
// Look up a variable, creating it if needed.  ok is false if the name
// is not a legal variable in this dialect, or the table is full
//

func (st *symbolTable) lookupSymbol(name string) (slot int, ok bool) {

	if slot, ok = st.slots[name]; ok {
		return slot, true
	}

	if !st.long || len(st.names) >= st.maxSlots {
		return 0, false
	}

	slot = len(st.names)
	st.slots[name] = slot
	st.names = append(st.names, name)

	return slot, true
}

//
// Forget every name allocated after the first n
//

func (st *symbolTable) truncate(n int) {

	for _, name := range st.names[n:] {
		delete(st.slots, name)
	}

	st.names = st.names[:n]
}

func (st *symbolTable) lookupSymbolRef(name string) (int, bool) {

	slot, ok := st.slots[name]

	return slot, ok
}

func (st *symbolTable) full() bool {

	return len(st.names) >= st.maxSlots
}

//
// Snapshot of the names in slot order, used when saving an image
//

func (st *symbolTable) symbols() []string {

	return append([]string(nil), st.names...)
}

//
// Rebuild the table from an image.  The image must agree with what we
// already have for every slot we have allocated, and extend it only
// if long names are allowed
//

func (st *symbolTable) restore(names []string) bool {

	if len(names) > st.maxSlots {
		return false
	}

	for i, name := range names {
		if i < len(st.names) {
			if st.names[i] != name {
				return false
			}
			continue
		}

		if !st.long {
			return false
		}

		st.slots[name] = i
		st.names = append(st.names, name)
	}

	return true
}
