/*
Package sigmastate implements the sigma coin registry and the transaction
validation rules built on top of it.

State tracks minted coins partitioned into coin groups, confirmed serials and
serials claimed by unconfirmed transactions. It's mutated block by block with
AddBlock/RemoveBlock and can be reverted exactly. State performs no locking,
all mutations are expected to happen under the owner's lock.

Validator checks sigma transactions against the State and accumulates
accepted mints and spends of a block into TxInfo, the aggregate AddBlock
consumes.
*/
package sigmastate
