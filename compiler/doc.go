/*

Process of compilation

SysY Text ->
	parse ->
Abstract Syntax Tree (ast) ->
	analyze ->
Checked and Folded ast ->
	front ->
Koopa Intermediate Representation (ir) ->
	format ->
Koopa Text

ir ->
	back ->
RV32 Assembly Text

*/
package compiler
