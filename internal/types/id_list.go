// id_list.go
//
// Add-on catalog backend for the add-on marketplace
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of amo-catalog.
// amo-catalog is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// amo-catalog is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with amo-catalog.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// IDList is a set of add-on ids read from a request body. It accepts an array
// of numbers or numeric strings, a single id, or a comma separated string such
// as "3615,1865". Zero and repeated ids are dropped, first occurrence wins.
type IDList []uint64

// UnmarshalJSON implements the json.Unmarshaler interface.
func (l *IDList) UnmarshalJSON(data []byte) error {
	*l = IDList{}
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	var items []FlexUint64
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		for _, part := range strings.Split(s, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			var id FlexUint64
			if err := id.UnmarshalJSON([]byte(`"` + part + `"`)); err != nil {
				return fmt.Errorf("IDList: %w", err)
			}
			items = append(items, id)
		}
	default:
		var id FlexUint64
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		items = append(items, id)
	}

	seen := make(map[uint64]bool, len(items))
	for _, item := range items {
		id := item.Uint64()
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		*l = append(*l, id)
	}
	return nil
}
