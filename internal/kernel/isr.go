package kernel

/*------------------------------------------------------------------
 *
 * Purpose:	Document (once) the convention every *FromISR primitive
 *		follows, rather than re-deriving it per primitive (spec
 *		§9 "post_from_isr variants" subtlety).
 *
 * Description:	A *FromISR call never blocks and never touches the
 *		critical-section nesting counter — ISRs already run with
 *		interrupts effectively masked for their duration. Instead
 *		of calling requestSwitch (which would call the port's
 *		TriggerSWI re-entrantly out of ISR context), every
 *		*FromISR primitive sets higherPrioWoken when it makes a
 *		higher-priority task READY, and leaves the actual switch
 *		request to the ISR epilogue: the code that runs after the
 *		ISR-level work is done should call
 *		Kernel.RequestSwitchFromISR once, passing whatever
 *		higherPrioWoken flags it accumulated. The convention is
 *		edge-triggered-and-pending: TriggerSWI only needs to be
 *		called once even if several *FromISR calls happened during
 *		the same ISR.
 *
 *------------------------------------------------------------------*/

// RequestSwitchFromISR should be called once by an ISR epilogue after
// any number of *FromISR primitive calls, passing true if any of them
// reported a higher-priority wakeup via their higherPrioWoken out-flag.
func (k *Kernel) RequestSwitchFromISR(higherPrioWoken bool) {
	if !higherPrioWoken {
		return
	}
	k.requestSwitch()
}
